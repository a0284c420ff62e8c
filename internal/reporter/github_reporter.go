package reporter

import (
	"fmt"
	"io"
	"strings"
)

// GitHubReporter implements Reporter interface for GitHub Actions annotations
type GitHubReporter struct {
	w io.Writer
}

func NewGitHubReporter(w io.Writer) *GitHubReporter {
	return &GitHubReporter{w: w}
}

// Report outputs a GitHub Actions notice for the submitted run
func (r *GitHubReporter) Report(result *Result) {
	message := fmt.Sprintf("Submitted %s as %s", result.Pipeline, result.Handle.JobID)
	if result.Handle.State != "" {
		message += fmt.Sprintf(" (%s)", result.Handle.State)
	}
	if result.Handle.ConsoleURL != "" {
		message += fmt.Sprintf("\n%s", result.Handle.ConsoleURL)
	}

	fmt.Fprintf(r.w, "::notice title=evalrun::%s\n", r.escapeForGitHubActions(message))
}

// escapeForGitHubActions escapes special characters for GitHub Actions annotations
func (r *GitHubReporter) escapeForGitHubActions(message string) string {
	message = strings.ReplaceAll(message, "%", "%25")
	message = strings.ReplaceAll(message, "\n", "%0A")
	message = strings.ReplaceAll(message, "\r", "%0D")
	return message
}
