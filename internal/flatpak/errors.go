package flatpak

import (
	"errors"
	"fmt"
)

var (
	// ErrToolFailed is the sentinel wrapped by ToolError.
	ErrToolFailed = errors.New("flatpak command failed")
	// ErrRuntimeNotFound is returned when no row matches the runtime identifier.
	ErrRuntimeNotFound = errors.New("runtime not found")
)

// ToolError is returned when the flatpak process cannot be started or exits non-zero.
type ToolError struct {
	// Command is the command line that was run.
	Command string
	// ExitCode is the process exit status, -1 when the process did not run to completion.
	ExitCode int
	// Stderr is the trimmed error output of the process.
	Stderr string
	// Err is the error reported by os/exec.
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %q exited with code %d", ErrToolFailed, e.Command, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %q: %v", ErrToolFailed, e.Command, e.Err)
	}

	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap returns ErrToolFailed and the underlying cause for errors.Is.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolFailed}
	}

	return []error{ErrToolFailed, e.Err}
}
