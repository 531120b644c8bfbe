package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Quill banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"   ___        _ _ _ ", "#38bdf8"},
		{"  / _ \\ _   _(_) | |", "#60a5fa"},
		{" | | | | | | | | | |", "#818cf8"},
		{" | |_| | |_| | | | |", "#a78bfa"},
		{"  \\__\\_\\\\__,_|_|_|_|", "#c084fc"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
