package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tagging methods recorded in Question.TagMethod.
const (
	TagMethodRule     = "rule"
	TagMethodFallback = "fallback"
	TagMethodDefault  = "default"
)

// UnknownLabel marks a label the classifier could not determine.
const UnknownLabel = "Unknown"

var titleCaser = cases.Title(language.English, cases.NoLower)

// CanonicalLabel normalizes a taxonomy label to the canonical form used
// for storage and filtering: trimmed, single-spaced, title-cased without
// lowering existing capitals ("iv therapy" → "Iv Therapy", "IV Therapy"
// stays as is). Filters canonicalize their inputs the same way, so
// exact-match filtering is case-insensitive in effect.
func CanonicalLabel(s string) string {
	s = NormalizeSpace(s)
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}
