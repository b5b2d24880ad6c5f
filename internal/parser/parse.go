// Package parser turns raw extracted exam text into structured,
// validated MCQ records. Segmentation finds question boundaries; the
// per-block extractor pulls out the stem, the four options, the correct
// answer, and an optional explanation. Malformed blocks are rejected and
// counted, never fatal: a file with zero valid questions is a successful
// empty parse.
package parser

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/model"
)

var (
	optionAlphaRe = regexp.MustCompile(`(?i)^\s*[(\[]?([A-D])[)\].:-]\s*(.*)$`)
	optionNumRe   = regexp.MustCompile(`^\s*([1-4])[).:-]\s*(.*)$`)

	// Inline option markers like "A) text B) text". RE2 has no lookahead,
	// so matches are located by index and the text between consecutive
	// markers becomes the option body.
	inlineMarkerRe = regexp.MustCompile(`(?i)(?:^|\s)[(\[]?([A-D])[)\]]\s*`)

	answerRe = regexp.MustCompile(
		`(?i)\b(?:ans(?:wer)?|correct\s*answer|key)\s*[:.-]?\s*(?:option\s*)?[(\[]?([A-D1-4])[)\]]?\b`)

	explanationRe = regexp.MustCompile(`(?i)\b(?:explanation|rationale)\s*[:-]\s*`)

	subjectLineRe  = regexp.MustCompile(`(?i)^subject\s*[:-]\s*(.+)$`)
	topicLineRe    = regexp.MustCompile(`(?i)^topic\s*[:-]\s*(.+)$`)
	subtopicLineRe = regexp.MustCompile(`(?i)^subtopic\s*[:-]\s*(.+)$`)
)

// numericOptionLabels maps "1".."4" answer letters to A..D.
var numericOptionLabels = map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}

// Defaults supplies values used when the text itself does not carry them.
type Defaults struct {
	Year     int
	Subject  string
	Topic    string
	Subtopic string
}

// Parser converts one file's raw text into zero or more valid questions.
type Parser struct {
	defaults Defaults
}

// New creates a Parser with the given defaults.
func New(defaults Defaults) *Parser {
	return &Parser{defaults: defaults}
}

// Result is the outcome of parsing one file. Rejected counts blocks that
// failed validation; they are logged and skipped, never raised.
type Result struct {
	Questions  []model.Question
	BlocksSeen int
	Rejected   int
}

// Parse segments and extracts all questions from one file's cleaned text.
// Order of output matches source order. Parse never fails a whole file
// over one malformed block.
func (p *Parser) Parse(sourceFile, raw string) Result {
	var res Result
	lines, numbers := cleanLines(raw)

	year := YearFromFilename(sourceFile)
	if year == 0 {
		year = p.defaults.Year
	}

	for _, sec := range splitSections(lines, numbers) {
		subject, topic, subtopic := p.sectionMetadata(sec.lines)
		for _, block := range segmentSection(sourceFile, sec) {
			res.BlocksSeen++
			q, err := p.parseBlock(block, sec.key)
			if err != nil {
				res.Rejected++
				zap.L().Debug("parser: rejected block",
					zap.String("file", sourceFile),
					zap.Int("start_line", block.StartLine),
					zap.Error(err),
				)
				continue
			}
			q.Year = year
			q.Subject = subject
			q.Topic = topic
			q.Subtopic = subtopic
			res.Questions = append(res.Questions, *q)
		}
	}

	zap.L().Info("parser: parsed file",
		zap.String("file", sourceFile),
		zap.Int("blocks", res.BlocksSeen),
		zap.Int("questions", len(res.Questions)),
		zap.Int("rejected", res.Rejected),
	)
	return res
}

// sectionMetadata scans for "Subject:"/"Topic:"/"Subtopic:" header lines,
// falling back to the parser defaults.
func (p *Parser) sectionMetadata(lines []string) (subject, topic, subtopic string) {
	subject, topic, subtopic = p.defaults.Subject, p.defaults.Topic, p.defaults.Subtopic
	for _, line := range lines {
		if m := subjectLineRe.FindStringSubmatch(line); m != nil {
			subject = strings.TrimSpace(m[1])
		} else if m := topicLineRe.FindStringSubmatch(line); m != nil {
			topic = strings.TrimSpace(m[1])
		} else if m := subtopicLineRe.FindStringSubmatch(line); m != nil {
			subtopic = strings.TrimSpace(m[1])
		}
	}
	return subject, topic, subtopic
}

// blockState accumulates one block's pieces as lines stream through.
type blockState struct {
	stem        []string
	options     map[string]string
	openOption  string
	explanation []string
	answer      string
}

func (s *blockState) appendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	switch {
	case len(s.explanation) > 0:
		s.explanation = append(s.explanation, text)
	case s.openOption != "" && len(s.options) <= len(model.OptionLabels):
		s.options[s.openOption] = strings.TrimSpace(s.options[s.openOption] + " " + text)
	default:
		s.stem = append(s.stem, text)
	}
}

// parseBlock extracts a single question from a raw block. Returns an
// error describing why the block was rejected when it cannot yield a
// fully valid record.
func (p *Parser) parseBlock(block model.RawBlock, key map[int]string) (*model.Question, error) {
	qnum, head, _ := isQuestionStart(block.Lines[0])

	state := &blockState{options: make(map[string]string)}
	p.consumeLine(state, head)
	for _, line := range block.Lines[1:] {
		p.consumeLine(state, line)
	}

	answer := state.answer
	if answer == "" {
		answer = key[qnum]
	}

	q := &model.Question{
		ID:            uuid.New().String(),
		QuestionText:  model.NormalizeSpace(strings.Join(state.stem, " ")),
		Options:       model.Options{},
		CorrectAnswer: answer,
		Explanation:   model.NormalizeSpace(strings.Join(state.explanation, " ")),
		SourcePDF:     block.SourcePDF,
		SourceFile:    block.SourceFile,
	}
	for label, text := range state.options {
		q.Options[label] = model.NormalizeSpace(text)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.QuestionHash = q.ContentHash()
	return q, nil
}

// consumeLine routes one cleaned line into the block state. Order
// matters: explanation markers split the line first, then inline answers
// are lifted out, then option markers, with anything left flowing into
// the stem, the open option, or the explanation.
func (p *Parser) consumeLine(state *blockState, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if len(state.explanation) > 0 {
		state.explanation = append(state.explanation, line)
		return
	}

	if loc := explanationRe.FindStringIndex(line); loc != nil {
		pre, post := line[:loc[0]], line[loc[1]:]
		if strings.TrimSpace(post) != "" {
			defer func() { state.explanation = append(state.explanation, strings.TrimSpace(post)) }()
		} else {
			// marker with no trailing text still opens the explanation
			defer func() { state.explanation = append(state.explanation, "") }()
		}
		line = strings.TrimSpace(pre)
		if line == "" {
			return
		}
	}

	if m := answerRe.FindStringSubmatchIndex(line); m != nil {
		raw := strings.ToUpper(line[m[2]:m[3]])
		if mapped, ok := numericOptionLabels[raw]; ok {
			raw = mapped
		}
		state.answer = raw
		line = strings.TrimSpace(line[:m[0]] + " " + line[m[1]:])
		if line == "" {
			return
		}
	}

	if p.consumeInlineOptions(state, line) {
		return
	}

	if m := optionAlphaRe.FindStringSubmatch(line); m != nil {
		label := strings.ToUpper(m[1])
		state.options[label] = strings.TrimSpace(m[2])
		state.openOption = label
		return
	}
	if m := optionNumRe.FindStringSubmatch(line); m != nil {
		label := numericOptionLabels[m[1]]
		state.options[label] = strings.TrimSpace(m[2])
		state.openOption = label
		return
	}

	state.appendText(line)
}

// consumeInlineOptions handles lines carrying two or more bracketed
// option markers ("A) x B) y C) z D) w"), splitting the text between
// consecutive markers into option bodies. Text before the first marker
// flows to the stem (or open option). Returns false when the line has
// fewer than two markers.
func (p *Parser) consumeInlineOptions(state *blockState, line string) bool {
	matches := inlineMarkerRe.FindAllStringSubmatchIndex(line, -1)
	if len(matches) < 2 {
		return false
	}

	if prefix := strings.TrimSpace(line[:matches[0][0]]); prefix != "" {
		state.appendText(prefix)
	}
	for i, m := range matches {
		label := strings.ToUpper(line[m[2]:m[3]])
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		state.options[label] = strings.TrimSpace(strings.Trim(line[m[1]:end], " ;"))
	}
	state.openOption = ""
	return true
}
