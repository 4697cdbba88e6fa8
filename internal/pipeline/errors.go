package pipeline

import (
	"fmt"
	"strings"
)

// DependencyError reports runtime requirements that are not met.
type DependencyError struct {
	Failed []string
}

func (e *DependencyError) Error() string {
	return "dependency check failed: " + strings.Join(e.Failed, "; ")
}

// InputError reports raw input files that are missing or unreadable.
type InputError struct {
	Missing []string
}

func (e *InputError) Error() string {
	return "input data check failed: missing " + strings.Join(e.Missing, ", ")
}

// StageError wraps the failure of a single stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
