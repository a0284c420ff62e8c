package reporter

import (
	"fmt"
	"io"

	"github.com/rejot-dev/evalrun/internal/launcher"
)

// Result describes a submitted pipeline run.
type Result struct {
	Pipeline   string
	Parameters map[string]any
	Handle     *launcher.JobHandle
}

// Reporter defines the interface for reporting submitted runs
type Reporter interface {
	Report(result *Result)
}

// New returns the reporter registered under name ("stdout" or "github").
func New(name string, w io.Writer) (Reporter, error) {
	switch name {
	case "", "stdout":
		return NewStdoutReporter(w), nil
	case "github":
		return NewGitHubReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown reporter: %s", name)
	}
}
