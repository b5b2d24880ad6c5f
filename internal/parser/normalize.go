package parser

import (
	"regexp"

	"github.com/examgrid/papers-cli/internal/model"
)

// Extracted exam text is full of boilerplate the layout pass leaves
// behind: coaching-channel plugs, page footers, separator art. None of it
// can ever be part of a question, so it is dropped before segmentation.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)\b(?:telegram|whatsapp|instagram|facebook|youtube)\b`),
	regexp.MustCompile(`(?i)\b(?:subscribe|follow us|join (?:our )?channel|download app)\b`),
	regexp.MustCompile(`(?i)\b(?:copyright|all rights reserved|not for sale|memory based)\b`),
	regexp.MustCompile(`(?i)^\s*page\s*\d+(?:\s*/\s*\d+)?\s*$`),
}

var ruleLineRe = regexp.MustCompile(`^[-_=~.•·\s]{3,}$`)

func isNoiseLine(line string) bool {
	if line == "" {
		return true
	}
	if ruleLineRe.MatchString(line) {
		return true
	}
	for _, pattern := range noisePatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// cleanLines normalizes whitespace per line and drops noise lines,
// returning the kept lines alongside their 1-based source line numbers.
func cleanLines(raw string) ([]string, []int) {
	var lines []string
	var numbers []int
	start := 0
	lineNo := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '\n' {
			lineNo++
			line := model.NormalizeSpace(raw[start:i])
			if !isNoiseLine(line) {
				lines = append(lines, line)
				numbers = append(numbers, lineNo)
			}
			start = i + 1
		}
	}
	return lines, numbers
}
