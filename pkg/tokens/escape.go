package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
)

var lineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	`"`, `\"`,
)

// Escape renders s as a single line: backslash, newline, carriage return, tab and
// double quote become two-character escape sequences.
func Escape(s string) string {
	return lineEscaper.Replace(s)
}

// FormatPayload renders a payload as text.
// Strings and byte slices are returned as-is, structured values as compact JSON.
func FormatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(b)
}

// Line formats and escapes a payload so it can be embedded in a single-line field.
func Line(payload any) string {
	return Escape(FormatPayload(payload))
}
