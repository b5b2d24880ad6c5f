package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/examgrid/papers-cli/internal/model"
)

// Question boundaries: a line beginning with "Q12." / "Question 12:" in
// any case, or a bare number with a [.:-] delimiter. The bare-number form
// deliberately excludes ")" so numeric option lines like "2) ..." inside
// a block do not open a new one.
var (
	questionQRe   = regexp.MustCompile(`(?i)^\s*q(?:uestion)?\s*(\d{1,3})\s*[).:-]\s*(.*)$`)
	questionNumRe = regexp.MustCompile(`^\s*(\d{1,3})\s*[.:-]\s*(.*)$`)

	sourceHeaderRe = regexp.MustCompile(`^### FILE:\s*(.+)$`)
	answerKeyRowRe = regexp.MustCompile(`(?i)^(\d{1,3})\s*[-:.)]\s*([A-D])$`)
)

const sourcePDFPrefix = "__SOURCE_PDF__:"

// isQuestionStart reports whether a cleaned line opens a new question
// block, along with the question number and the remainder of the line.
func isQuestionStart(line string) (num int, rest string, ok bool) {
	m := questionQRe.FindStringSubmatch(line)
	if m == nil {
		m = questionNumRe.FindStringSubmatch(line)
	}
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(m[2]), true
}

// section is a span of one text file attributed to a single source PDF.
// Answer-key rows ("12 - B") are lifted out of the line stream into the
// key map so they neither open phantom blocks nor pollute explanations.
type section struct {
	sourcePDF string
	lines     []string
	numbers   []int
	key       map[int]string
}

// splitSections breaks cleaned lines on "### FILE: x.pdf" headers. Text
// before the first header (or all text, if there are no headers) falls in
// a section with an unknown source. A "__SOURCE_PDF__: x.pdf" first line
// names the source for the whole file.
func splitSections(lines []string, numbers []int) []section {
	current := section{sourcePDF: "unknown.pdf", key: make(map[int]string)}
	if len(lines) > 0 && strings.HasPrefix(lines[0], sourcePDFPrefix) {
		current.sourcePDF = strings.TrimSpace(strings.TrimPrefix(lines[0], sourcePDFPrefix))
		lines = lines[1:]
		numbers = numbers[1:]
	}

	var sections []section
	for i, line := range lines {
		if m := sourceHeaderRe.FindStringSubmatch(line); m != nil {
			if len(current.lines) > 0 {
				sections = append(sections, current)
			}
			current = section{sourcePDF: strings.TrimSpace(m[1]), key: make(map[int]string)}
			continue
		}
		if m := answerKeyRowRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				current.key[n] = strings.ToUpper(m[2])
				continue
			}
		}
		current.lines = append(current.lines, line)
		current.numbers = append(current.numbers, numbers[i])
	}
	if len(current.lines) > 0 {
		sections = append(sections, current)
	}
	return sections
}

// segmentSection splits one section's lines into question blocks.
func segmentSection(sourceFile string, sec section) []model.RawBlock {
	var blocks []model.RawBlock
	var current *model.RawBlock
	for i, line := range sec.lines {
		if _, _, ok := isQuestionStart(line); ok {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &model.RawBlock{
				SourceFile: sourceFile,
				SourcePDF:  sec.sourcePDF,
				StartLine:  sec.numbers[i],
				EndLine:    sec.numbers[i],
				Lines:      []string{line},
			}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
			current.EndLine = sec.numbers[i]
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

// Segment splits raw file text into ordered, non-overlapping question
// blocks. Text with no recognizable boundary yields zero blocks; that is
// a legitimate empty result, not an error.
func Segment(sourceFile, raw string) []model.RawBlock {
	lines, numbers := cleanLines(raw)

	var blocks []model.RawBlock
	for _, sec := range splitSections(lines, numbers) {
		blocks = append(blocks, segmentSection(sourceFile, sec)...)
	}
	return blocks
}

// YearFromFilename extracts a year from names like "2023.txt" or
// "2023_shift1.txt". Returns 0 when the name carries no leading year.
func YearFromFilename(name string) int {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if idx := strings.IndexAny(stem, "_-"); idx > 0 {
		stem = stem[:idx]
	}
	if len(stem) != 4 {
		return 0
	}
	year, err := strconv.Atoi(stem)
	if err != nil {
		return 0
	}
	return year
}
