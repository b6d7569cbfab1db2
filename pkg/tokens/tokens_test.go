package tokens_test

import (
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/tokens"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, tokens.Estimate(""))
	assert.Equal(t, 1, tokens.Estimate("a"))
	assert.Equal(t, 1, tokens.Estimate("abcd"))
	assert.Equal(t, 2, tokens.Estimate("abcde"))
	// Characters, not bytes.
	assert.Equal(t, 1, tokens.Estimate("çãõé"))
}

func TestTruncate_NoOpWhenFits(t *testing.T) {
	res := tokens.Truncate("hello world", 3)
	assert.False(t, res.Truncated)
	assert.Equal(t, "hello world", res.Text)
}

func TestTruncate_AppendsMarker(t *testing.T) {
	text := strings.Repeat("x", 100)
	res := tokens.Truncate(text, 10)

	assert.True(t, res.Truncated)
	assert.True(t, strings.HasSuffix(res.Text, tokens.TruncationMarker))
	assert.Equal(t, strings.Repeat("x", 28)+tokens.TruncationMarker, res.Text)
	assert.LessOrEqual(t, tokens.Estimate(res.Text), 10)
}

func TestTruncate_Property(t *testing.T) {
	texts := []string{
		"",
		"short",
		strings.Repeat("ab", 37),
		strings.Repeat("é", 101),
		"line one\nline two\nline three",
		strings.Repeat("日本語", 50),
	}
	for _, text := range texts {
		for budget := -1; budget <= 40; budget++ {
			res := tokens.Truncate(text, budget)
			limit := budget
			if limit < 0 {
				limit = 0
			}
			assert.LessOrEqual(t, tokens.Estimate(res.Text), limit, "text=%q budget=%d", text, budget)
			assert.Equal(t, tokens.Estimate(text) > limit, res.Truncated, "text=%q budget=%d", text, budget)
		}
	}
}

func TestTruncate_Deterministic(t *testing.T) {
	text := strings.Repeat("payload ", 40)
	assert.Equal(t, tokens.Truncate(text, 7), tokens.Truncate(text, 7))
}

func TestTruncate_TinyBudget(t *testing.T) {
	res := tokens.Truncate("this will not fit at all", 1)
	assert.True(t, res.Truncated)
	assert.Empty(t, res.Text)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	res := tokens.Truncate(strings.Repeat("ü", 40), 5)
	assert.True(t, res.Truncated)
	assert.Equal(t, strings.Repeat("ü", 8)+tokens.TruncationMarker, res.Text)
}
