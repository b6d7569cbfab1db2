// Package tokens approximates model token cost and bounds text to a token budget.
//
// Estimation uses a fixed characters-per-token ratio rather than a real tokenizer.
// Budgets are soft ceilings, so the approximation only has to be deterministic.
package tokens

import "unicode/utf8"

// CharsPerToken is the fixed ratio used by Estimate.
const CharsPerToken = 4

// TruncationMarker is appended whenever Truncate shortens its input.
const TruncationMarker = "…[TRUNCATED]"

var markerLen = utf8.RuneCountInString(TruncationMarker)

// Estimate returns the approximate token cost of text, rounded up.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Result is the output of Truncate.
type Result struct {
	Text      string
	Truncated bool
}

// Truncate bounds text to budget tokens.
// Text that already fits is returned unchanged. Otherwise the longest prefix that
// leaves room for TruncationMarker within the budget is kept and the marker appended.
// Budgets too small to hold the marker yield empty text.
func Truncate(text string, budget int) Result {
	if budget < 0 {
		budget = 0
	}
	if Estimate(text) <= budget {
		return Result{Text: text}
	}

	keep := budget*CharsPerToken - markerLen
	if keep < 0 {
		return Result{Truncated: true}
	}

	// Walk runes so the cut never splits a multi-byte sequence.
	end := 0
	for i := 0; i < keep; i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return Result{Text: text[:end] + TruncationMarker, Truncated: true}
}

// Fit is a shorthand for Truncate(text, budget).Text.
func Fit(text string, budget int) string {
	return Truncate(text, budget).Text
}
