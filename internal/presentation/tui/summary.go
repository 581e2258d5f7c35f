package tui

import (
	"fmt"
	"io"
	"strings"
)

// StreamSummary counts what one stream carried during a run.
type StreamSummary struct {
	Name    string
	Records int
	Splits  int
}

// Summary describes a finished run.
type Summary struct {
	Scenario  string
	Seed      uint64
	Cycles    uint64
	Sequences []string
	Accesses  int
	Streams   []StreamSummary
	Err       error
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder

	result := "PASSED"
	if s.Err != nil {
		result = "FAILED"
	}
	fmt.Fprintf(&b, "# Scenario %s: %s\n\n", s.Scenario, result)
	fmt.Fprintf(&b, "- seed: `%d`\n", s.Seed)
	fmt.Fprintf(&b, "- cycles: %d\n", s.Cycles)
	fmt.Fprintf(&b, "- control-plane accesses: %d\n", s.Accesses)
	if len(s.Sequences) > 0 {
		fmt.Fprintf(&b, "- sequences: %s\n", strings.Join(s.Sequences, ", "))
	}

	if len(s.Streams) > 0 {
		b.WriteString("\n| stream | records | splits |\n|---|---:|---:|\n")
		for _, st := range s.Streams {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", st.Name, st.Records, st.Splits)
		}
	}

	if s.Err != nil {
		fmt.Fprintf(&b, "\n## Failure\n\n```\n%v\n```\n", s.Err)
	}
	return b.String()
}

// Render writes the summary to w, styled when w is a terminal.
func Render(w io.Writer, s Summary) error {
	md := s.Markdown()
	if IsTerminal(w) {
		out, err := NewRenderer()(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(w, md)
	return err
}
