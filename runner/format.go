package runner

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

// FormatResult formats the counters of a finished run for display.
func FormatResult(res *Result) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Trace statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Records captured: "))
	b.WriteString(fmt.Sprintf("%d\n", res.Records))
	if res.Dropped > 0 {
		b.WriteString(color.Bold.Sprint("Duplicates dropped: "))
		b.WriteString(fmt.Sprintf("%d\n", res.Dropped))
	}
	b.WriteString(color.Bold.Sprint("Sink failures: "))
	if res.Failed > 0 {
		b.WriteString(color.Red.Sprintf("%d\n", res.Failed))
	} else {
		b.WriteString(color.Green.Sprintf("%d\n", res.Failed))
	}
	b.WriteString(color.Bold.Sprint("Duration: "))
	b.WriteString(fmt.Sprintf("%s\n", res.Duration))
	return b.String()
}

func FormatSummary(s *Summary) string {
	var b strings.Builder
	width := len("function")
	for _, f := range s.Functions {
		width = max(width, len(f.Function))
	}
	b.WriteString(color.Cyan.Sprint("=== Record summary ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprintf("%-*s %8s %8s\n", width, "function", "calls", "unique"))
	for _, f := range s.Functions {
		b.WriteString(fmt.Sprintf("%-*s %8d %8d\n", width, f.Function, f.Calls, f.Unique))
	}
	b.WriteString(color.Gray.Sprint(strings.Repeat("-", width+18)))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Records: "))
	b.WriteString(fmt.Sprintf("%d\n", s.Records))
	if s.Invalid > 0 {
		b.WriteString(color.Bold.Sprint("Invalid lines: "))
		b.WriteString(color.Yellow.Sprintf("%d\n", s.Invalid))
	}
	return b.String()
}
