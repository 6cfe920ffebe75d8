// Package command runs external programs and reports their outcome as a
// structured [Result] instead of an error chain.
//
// Every speech collaborator in ttsbroker (say, afconvert, ffmpeg, gtts-cli)
// is a separate process. Backends decide what to do with a non-zero exit by
// inspecting the result, which keeps the fallback policy an explicit branch
// in the caller.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxStderr bounds how much stderr is retained in a Result.
const maxStderr = 4096

// Result describes a finished process.
type Result struct {
	// Name is the program that was run.
	Name string

	// ExitCode is the process exit status. -1 means the process could not be
	// started or was terminated by a signal.
	ExitCode int

	// Stderr holds the trimmed, size-limited standard error output.
	Stderr string

	// Duration is the wall-clock run time.
	Duration time.Duration

	// Err is set when the process could not be started at all
	// (e.g. executable not found).
	Err error
}

// OK reports whether the process ran and exited with status 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Failure returns nil for a successful result, otherwise an error describing
// how the process failed.
func (r Result) Failure() error {
	switch {
	case r.Err != nil:
		return fmt.Errorf("%s: %w", r.Name, r.Err)
	case r.ExitCode != 0:
		if r.Stderr != "" {
			return fmt.Errorf("%s exited with status %d: %s", r.Name, r.ExitCode, r.Stderr)
		}
		return fmt.Errorf("%s exited with status %d", r.Name, r.ExitCode)
	}
	return nil
}

// Runner executes an external program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs programs with os/exec.
//
// Cancellation of ctx does not stop a running process: synthesis and
// transcoding always run to completion so their output files can be cleaned
// up by the caller.
type ExecRunner struct{}

// Run starts name with args and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	start := time.Now()
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Name:     name,
		Stderr:   truncate(strings.TrimSpace(stderr.String()), maxStderr),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}

	slog.Debug("command finished",
		"name", name,
		"exit_code", res.ExitCode,
		"duration", res.Duration,
	)
	return res
}

// LookPath reports whether name resolves to an executable.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
