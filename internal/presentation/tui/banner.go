package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Canopy banner with the given version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	// Green gradient, dark to light
	lines := []struct{ text, color string }{
		{`   ___ __ _ _ __   ___  _ __  _   _ `, "#166534"},
		{`  / __/ _' | '_ \ / _ \| '_ \| | | |`, "#15803d"},
		{` | (_| (_| | | | | (_) | |_) | |_| |`, "#16a34a"},
		{`  \___\__,_|_| |_|\___/| .__/ \__, |`, "#22c55e"},
		{`                       |_|    |___/ `, "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
