package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int
		want    string
		wantErr error
	}{
		{name: "plain", input: "hello", want: "hello"},
		{name: "keeps newlines and tabs", input: "a\n\tb\r\n", want: "a\n\tb\r\n"},
		{name: "strips control chars", input: "a\x00b\x1bc", want: "abc"},
		{name: "too large", input: strings.Repeat("x", 11), limit: 10, wantErr: ErrInputTooLarge},
		{name: "invalid utf8", input: "a\xffb", wantErr: ErrInvalidUTF8},
		{name: "empty", input: " \n ", wantErr: ErrEmptyInput},
		{name: "only control chars", input: "\x00\x01", wantErr: ErrEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
