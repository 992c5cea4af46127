package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the rillweb banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.Profile
	lines := []struct {
		text  string
		color string
	}{
		{"       _ _ _              _     ", "#fbbf24"},
		{"  _ __(_) | |_      _____| |__  ", "#f59e0b"},
		{" | '__| | | \\ \\ /\\ / / _ \\ '_ \\ ", "#f97316"},
		{" | |  | | | |\\ V  V /  __/ |_) |", "#ef4444"},
		{" |_|  |_|_|_| \\_/\\_/ \\___|_.__/ ", "#e11d48"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
