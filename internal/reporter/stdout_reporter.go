package reporter

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/rejot-dev/evalrun/internal/color"
)

var (
	boldCyan = lipgloss.NewStyle().
			Bold(true).
			Foreground(color.Cyan)

	muted = lipgloss.NewStyle().
		Foreground(color.DarkGray)

	foreground = lipgloss.NewStyle().
			Foreground(color.LightGray)

	boldGreen = lipgloss.NewStyle().
			Bold(true).
			Foreground(color.DarkGreen)

	blue = lipgloss.NewStyle().
		Foreground(color.Blue)

	bold = lipgloss.NewStyle().
		Bold(true)
)

// StdoutReporter implements Reporter interface for console output
type StdoutReporter struct {
	w io.Writer
}

func NewStdoutReporter(w io.Writer) *StdoutReporter {
	return &StdoutReporter{w: w}
}

// Report prints a summary of the submitted run
func (r *StdoutReporter) Report(result *Result) {
	fmt.Fprint(r.w, "\n")
	fmt.Fprintln(r.w, boldCyan.Render("🚀 PIPELINE SUBMITTED"))

	handle := result.Handle
	r.field("Pipeline", result.Pipeline)
	r.field("Run", handle.JobID)
	if handle.State != "" {
		r.field("State", handle.State)
	}
	if handle.Name != "" {
		r.field("Resource", handle.Name)
	}

	if len(result.Parameters) == 0 {
		fmt.Fprintln(r.w, muted.Render("   No parameters passed, pipeline defaults apply."))
	} else {
		fmt.Fprint(r.w, "\n")
		fmt.Fprintln(r.w, bold.Render(fmt.Sprintf("   Parameters (%d)", len(result.Parameters))))
		for _, name := range slices.Sorted(maps.Keys(result.Parameters)) {
			fmt.Fprintf(r.w, "      %s %s\n", muted.Render(name+":"), foreground.Render(fmt.Sprint(result.Parameters[name])))
		}
	}

	if handle.ConsoleURL != "" {
		fmt.Fprint(r.w, "\n")
		fmt.Fprintf(r.w, "%s %s\n", boldGreen.Render("🔗 View run:"), blue.Render(handle.ConsoleURL))
	}
}

func (r *StdoutReporter) field(label, value string) {
	fmt.Fprintf(r.w, "   %s %s\n", bold.Render(label+":"), foreground.Render(value))
}
