package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the alignenv banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	lines := []struct {
		text  string
		color string
	}{
		{"        _ _                              ", "#818cf8"},
		{"   __ _| (_) __ _ _ __   ___ _ ____   __", "#a78bfa"},
		{"  / _` | | |/ _` | '_ \\ / _ \\ '_ \\ \\ / /", "#c084fc"},
		{" | (_| | | | (_| | | | |  __/ | | \\ V / ", "#e879f9"},
		{"  \\__,_|_|_|\\__, |_| |_|\\___|_| |_|\\_/  ", "#f472b6"},
		{"            |___/                        ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
