package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompilation matches every *CompilationError.
var ErrCompilation = errors.New("pipeline compilation failed")

// CompilationError aggregates the problems found while type-checking a
// pipeline definition.
type CompilationError struct {
	Pipeline string
	Problems []string
}

func (e *CompilationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("failed to compile pipeline %s", e.Pipeline)
	}
	return fmt.Sprintf("failed to compile pipeline %s: %s", e.Pipeline, strings.Join(e.Problems, "; "))
}

func (e *CompilationError) Is(target error) bool {
	return target == ErrCompilation
}

func (e *CompilationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *CompilationError) orNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}
