package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the todosoa banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _            _                   ", "#34d399"},
		{"| |_ ___   __| | ___  ___  ___   __ _ ", "#2dd4bf"},
		{"| __/ _ \\ / _` |/ _ \\/ __|/ _ \\ / _` |", "#22d3ee"},
		{"| || (_) | (_| | (_) \\__ \\ (_) | (_| |", "#38bdf8"},
		{" \\__\\___/ \\__,_|\\___/|___/\\___/ \\__,_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
