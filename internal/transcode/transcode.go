// Package transcode converts native engine audio into 16-bit little-endian
// PCM WAVE, which every browser can play.
//
// Two converters are supported:
//
//	afconvert -f WAVE -d LEI16@22050 IN OUT                          (macOS, default)
//	ffmpeg -nostdin -y -loglevel error -i IN -acodec pcm_s16le -ar 22050 -f wav OUT
package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/nadzzz/ttsbroker/internal/command"
	"github.com/nadzzz/ttsbroker/internal/config"
	"github.com/nadzzz/ttsbroker/internal/scratch"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

// Supported converter tools.
const (
	ToolAfconvert = "afconvert"
	ToolFFmpeg    = "ffmpeg"
)

// DefaultSampleRate is the output sample rate in Hz.
const DefaultSampleRate = 22050

// Error reports a failed conversion.
type Error struct {
	Tool     string
	ExitCode int
	Stderr   string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("transcode with %s: %v", e.Tool, e.Cause)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Transcoder converts audio files to WAVE.
type Transcoder struct {
	tool       string
	command    string
	sampleRate int
	runner     command.Runner
}

// New creates a Transcoder from config. A nil runner uses os/exec.
func New(cfg config.TranscodeConfig, runner command.Runner) (*Transcoder, error) {
	tool := cfg.Tool
	if tool == "" {
		tool = ToolAfconvert
	}
	if tool != ToolAfconvert && tool != ToolFFmpeg {
		return nil, fmt.Errorf("unknown transcode tool %q (want %q or %q)", tool, ToolAfconvert, ToolFFmpeg)
	}
	cmd := cfg.Command
	if cmd == "" {
		cmd = tool
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return &Transcoder{tool: tool, command: cmd, sampleRate: rate, runner: runner}, nil
}

// Tool returns the configured converter name.
func (t *Transcoder) Tool() string { return t.tool }

// Target is the container Transcode produces.
func (t *Transcoder) Target() tts.Format { return tts.FormatWAV }

// Transcode converts the file at in to WAVE inside space and returns the new
// path. On failure the partial output is removed; the input is left to the
// owner of space.
func (t *Transcoder) Transcode(ctx context.Context, space *scratch.Space, in string) (string, error) {
	out, err := space.Path("out-*" + tts.FormatWAV.Ext())
	if err != nil {
		return "", &Error{Tool: t.tool, ExitCode: -1, Cause: err}
	}

	slog.Debug("transcoding", "tool", t.tool, "sample_rate", t.sampleRate, "input", in)
	res := t.runner.Run(ctx, t.command, t.args(in, out)...)
	if !res.OK() {
		space.Discard(out)
		return "", &Error{Tool: t.tool, ExitCode: res.ExitCode, Stderr: res.Stderr, Cause: res.Failure()}
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		space.Discard(out)
		return "", &Error{Tool: t.tool, ExitCode: res.ExitCode, Cause: fmt.Errorf("no output written to %s", out)}
	}
	return out, nil
}

func (t *Transcoder) args(in, out string) []string {
	rate := strconv.Itoa(t.sampleRate)
	if t.tool == ToolFFmpeg {
		return []string{"-nostdin", "-y", "-loglevel", "error", "-i", in, "-acodec", "pcm_s16le", "-ar", rate, "-f", "wav", out}
	}
	return []string{"-f", "WAVE", "-d", "LEI16@" + rate, in, out}
}
