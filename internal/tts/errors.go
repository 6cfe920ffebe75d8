package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when a request carries no text to speak.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrBackendUnavailable is returned when the engine's dependency is not
	// installed on this host.
	ErrBackendUnavailable = errors.New("speech backend unavailable")
)

// SynthesisError reports a failed synthesis attempt.
type SynthesisError struct {
	// Backend is the engine name ("say", "gtts").
	Backend string

	// Reason is a short description of what failed.
	Reason string

	// ExitCode is the engine process exit status, -1 if it never ran.
	ExitCode int

	// Stderr is the engine's diagnostic output, if any.
	Stderr string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Reason, e.Cause)
	}
	return e.Backend + ": " + e.Reason
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}
