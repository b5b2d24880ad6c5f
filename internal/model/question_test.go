package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion() Question {
	return Question{
		Year:         2023,
		QuestionText: "What is normal serum potassium?",
		Options: Options{
			"A": "1.5-3.0",
			"B": "3.5-5.0",
			"C": "5.5-7.0",
			"D": "7.5-9.0",
		},
		CorrectAnswer: "B",
	}
}

func TestQuestion_Validate_OK(t *testing.T) {
	q := validQuestion()
	assert.NoError(t, q.Validate())
}

func TestQuestion_Validate_MissingOption(t *testing.T) {
	q := validQuestion()
	delete(q.Options, "C")
	assert.Error(t, q.Validate())
}

func TestQuestion_Validate_EmptyOptionText(t *testing.T) {
	q := validQuestion()
	q.Options["D"] = "   "
	assert.Error(t, q.Validate())
}

func TestQuestion_Validate_AnswerNotAnOption(t *testing.T) {
	q := validQuestion()
	q.CorrectAnswer = "E"
	assert.Error(t, q.Validate())
}

func TestQuestion_Validate_EmptyText(t *testing.T) {
	q := validQuestion()
	q.QuestionText = ""
	assert.Error(t, q.Validate())
}

func TestQuestion_ContentHash_Deterministic(t *testing.T) {
	a := validQuestion()
	b := validQuestion()

	// Whitespace and case differences must not change the hash.
	b.QuestionText = "  What   is normal\tserum potassium?  "
	b.Options["B"] = "3.5-5.0 "

	require.Equal(t, a.ContentHash(), b.ContentHash())
}

func TestQuestion_ContentHash_DiffersOnOptionChange(t *testing.T) {
	a := validQuestion()
	b := validQuestion()
	b.Options["D"] = "9.5-11.0"

	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}

func TestNormalizeSpace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse runs", "a  b\t\tc", "a b c"},
		{"trim", "  hello  ", "hello"},
		{"nbsp", "a b", "a b"},
		{"control chars", "a\x00b\x07c", "abc"},
		{"newlines", "line one\nline two", "line one line two"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSpace(tt.in))
		})
	}
}

func TestCanonicalLabel(t *testing.T) {
	assert.Equal(t, "Pharmacology", CanonicalLabel("pharmacology"))
	assert.Equal(t, "Pharmacology", CanonicalLabel("  Pharmacology "))
	assert.Equal(t, "IV Therapy", CanonicalLabel("IV therapy"))
	assert.Equal(t, "Medical-Surgical Nursing", CanonicalLabel("medical-surgical nursing"))
	assert.Equal(t, "", CanonicalLabel("   "))
}
