// Package say implements the TTS Synthesizer using the macOS say command.
//
// say writes AIFF audio to a file:
//
//	say [-v VOICE] -r RATE -o OUT.aiff TEXT
//
// When a specific voice is requested and say exits non-zero (typically
// because the voice is not installed), synthesis is retried exactly once with
// the system default voice. A failure of the default-voice attempt is final.
package say

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nadzzz/ttsbroker/internal/command"
	"github.com/nadzzz/ttsbroker/internal/config"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

const (
	// Name is the engine identifier.
	Name = "say"

	defaultCommand = "say"

	// defaultRate is a natural conversational pace in words per minute.
	defaultRate = 165
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer implements tts.Synthesizer by running say.
type Synthesizer struct {
	command string
	rate    int
	runner  command.Runner
}

// New creates a say synthesizer from config. A nil runner uses os/exec.
func New(cfg config.SayConfig, runner command.Runner) *Synthesizer {
	cmd := cfg.Command
	if cmd == "" {
		cmd = defaultCommand
	}
	rate := cfg.Rate
	if rate <= 0 {
		rate = defaultRate
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return &Synthesizer{command: cmd, rate: rate, runner: runner}
}

// Name returns the engine identifier.
func (s *Synthesizer) Name() string { return Name }

// Synthesize runs say and returns the AIFF file it produced.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%s: %w", Name, tts.ErrEmptyText)
	}
	if opts.Space == nil {
		return nil, &tts.SynthesisError{Backend: Name, Reason: "no scratch space", ExitCode: -1}
	}

	voice := opts.Voice.Voice
	if voice != "" {
		path, res, err := s.run(ctx, opts, voice, text)
		if err != nil {
			return nil, err
		}
		if res.OK() {
			return &tts.SynthesizeResult{Path: path, Format: tts.FormatAIFF, Voice: voice}, nil
		}
		opts.Space.Discard(path)
		if res.Err != nil {
			// The command itself is missing; another attempt cannot help.
			return nil, &tts.SynthesisError{Backend: Name, Reason: "starting say", ExitCode: res.ExitCode, Cause: res.Failure()}
		}
		slog.Warn("voice not usable, falling back to system default",
			"voice", voice,
			"language", opts.Voice.Language,
			"exit_code", res.ExitCode,
			"stderr", res.Stderr,
		)
	}

	path, res, err := s.run(ctx, opts, "", text)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		opts.Space.Discard(path)
		return nil, &tts.SynthesisError{
			Backend:  Name,
			Reason:   "default voice failed",
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Cause:    res.Failure(),
		}
	}
	return &tts.SynthesizeResult{Path: path, Format: tts.FormatAIFF, FellBack: voice != ""}, nil
}

// run performs one say invocation into a fresh scratch file.
func (s *Synthesizer) run(ctx context.Context, opts tts.SynthesizeOpts, voice, text string) (string, command.Result, error) {
	path, err := opts.Space.Path("say-*" + tts.FormatAIFF.Ext())
	if err != nil {
		return "", command.Result{}, &tts.SynthesisError{Backend: Name, Reason: "allocating output file", ExitCode: -1, Cause: err}
	}

	slog.Debug("say synthesize", "voice", voice, "rate", s.rate, "text_length", len(text))
	res := s.runner.Run(ctx, s.command, s.args(voice, path, text)...)
	return path, res, nil
}

func (s *Synthesizer) args(voice, out, text string) []string {
	args := make([]string, 0, 7)
	if voice != "" {
		args = append(args, "-v", voice)
	}
	return append(args, "-r", strconv.Itoa(s.rate), "-o", out, text)
}

// Close is a no-op; every synthesis is its own process.
func (s *Synthesizer) Close() error { return nil }
