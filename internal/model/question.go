package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rotisserie/eris"
)

// OptionLabels are the four option keys every valid question carries,
// in presentation order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Options maps an option label (A-D) to its text.
type Options map[string]string

// Question is the canonical structured MCQ record produced by the parser
// and labeled by the classifier.
type Question struct {
	ID            string  `json:"question_id"`
	Year          int     `json:"year"`
	Subject       string  `json:"subject,omitempty"`
	Topic         string  `json:"topic,omitempty"`
	Subtopic      string  `json:"subtopic,omitempty"`
	QuestionText  string  `json:"question_text"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation,omitempty"`
	SourcePDF     string  `json:"source_pdf,omitempty"`
	SourceFile    string  `json:"source_file,omitempty"`
	QuestionHash  string  `json:"question_hash"`

	// Tagging provenance.
	TagMethod string `json:"tag_method,omitempty"`
	TagScore  int    `json:"tag_score,omitempty"`
}

// Validate reports whether the record is complete enough to leave the
// parser: exactly four non-empty options and a correct answer that is one
// of them.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return eris.New("question: empty question text")
	}
	if len(q.Options) != len(OptionLabels) {
		return eris.Errorf("question: expected %d options, got %d", len(OptionLabels), len(q.Options))
	}
	for _, label := range OptionLabels {
		if strings.TrimSpace(q.Options[label]) == "" {
			return eris.Errorf("question: missing option %s", label)
		}
	}
	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return eris.Errorf("question: correct answer %q is not an option", q.CorrectAnswer)
	}
	return nil
}

// ContentHash computes the deduplication fingerprint: sha256 over the
// lowercased, whitespace-normalized question text and the four option
// texts in label order. Two records with identical normalized content
// always hash the same.
func (q *Question) ContentHash() string {
	parts := make([]string, 0, 1+len(OptionLabels))
	parts = append(parts, strings.ToLower(NormalizeSpace(q.QuestionText)))
	for _, label := range OptionLabels {
		parts = append(parts, strings.ToLower(NormalizeSpace(q.Options[label])))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// NormalizeSpace collapses whitespace runs to single spaces, converts
// non-breaking spaces, strips other control characters, and trims.
func NormalizeSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r == ' ' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = true
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
