// Package gtts implements the TTS Synthesizer using gTTS, the Google
// Translate text-to-speech client, through its gtts-cli command:
//
//	gtts-cli --lang LANG [--slow] [--tld TLD] --output OUT.mp3 TEXT
//
// Output is MP3 and is served to clients as-is. There is no voice concept and
// no retry; a failed run is reported directly.
//
// Whether gtts-cli is installed is checked once when the synthesizer is
// created. The result is exposed through [Synthesizer.Available] for the
// health endpoint, and Synthesize refuses to run when it is false.
package gtts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadzzz/ttsbroker/internal/command"
	"github.com/nadzzz/ttsbroker/internal/config"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

const (
	// Name is the engine identifier.
	Name = "gtts"

	defaultCommand  = "gtts-cli"
	defaultLanguage = "en"
)

// defaultLanguages maps request language codes to gTTS language identifiers.
var defaultLanguages = map[string]string{
	"en": "en",    // English
	"zh": "zh-CN", // Mandarin Chinese
	"hi": "hi",    // Hindi
	"ta": "ta",    // Tamil
}

// Compile-time interface assertions.
var (
	_ tts.Synthesizer          = (*Synthesizer)(nil)
	_ tts.AvailabilityReporter = (*Synthesizer)(nil)
)

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithRunner replaces the process runner (used by tests).
func WithRunner(r command.Runner) Option {
	return func(s *Synthesizer) {
		s.runner = r
	}
}

// WithAvailability skips the PATH lookup and forces the availability flag.
func WithAvailability(ok bool) Option {
	return func(s *Synthesizer) {
		s.available = &ok
	}
}

// Synthesizer implements tts.Synthesizer by running gtts-cli.
type Synthesizer struct {
	command   string
	slow      bool
	tld       string
	languages map[string]string
	runner    command.Runner
	available *bool
}

// New creates a gTTS synthesizer from config.
func New(cfg config.GTTSConfig, opts ...Option) *Synthesizer {
	languages := make(map[string]string, len(defaultLanguages)+len(cfg.Languages))
	for k, v := range defaultLanguages {
		languages[k] = v
	}
	for k, v := range cfg.Languages {
		languages[k] = v
	}

	s := &Synthesizer{
		command:   cfg.Command,
		slow:      cfg.Slow,
		tld:       cfg.TLD,
		languages: languages,
		runner:    command.ExecRunner{},
	}
	if s.command == "" {
		s.command = defaultCommand
	}
	for _, o := range opts {
		o(s)
	}
	if s.available == nil {
		ok := command.LookPath(s.command)
		s.available = &ok
	}
	return s
}

// Name returns the engine identifier.
func (s *Synthesizer) Name() string { return Name }

// Available reports whether gtts-cli was found at startup.
func (s *Synthesizer) Available() bool { return *s.available }

// Language maps a request language code to the gTTS language identifier.
// Unmapped codes fall back to English.
func (s *Synthesizer) Language(code string) string {
	if lang, ok := s.languages[code]; ok {
		return lang
	}
	return defaultLanguage
}

// Synthesize runs gtts-cli and returns the MP3 file it produced.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if !s.Available() {
		return nil, &tts.SynthesisError{Backend: Name, Reason: "gtts-cli not installed", ExitCode: -1, Cause: tts.ErrBackendUnavailable}
	}
	if text == "" {
		return nil, fmt.Errorf("%s: %w", Name, tts.ErrEmptyText)
	}
	if opts.Space == nil {
		return nil, &tts.SynthesisError{Backend: Name, Reason: "no scratch space", ExitCode: -1}
	}

	out, err := opts.Space.Path("gtts-*" + tts.FormatMP3.Ext())
	if err != nil {
		return nil, &tts.SynthesisError{Backend: Name, Reason: "allocating output file", ExitCode: -1, Cause: err}
	}

	lang := s.Language(opts.Voice.Language)
	slog.Debug("gtts synthesize", "language", lang, "slow", s.slow, "text_length", len(text))

	res := s.runner.Run(ctx, s.command, s.args(lang, out, text)...)
	if !res.OK() {
		opts.Space.Discard(out)
		return nil, &tts.SynthesisError{
			Backend:  Name,
			Reason:   "generating speech",
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Cause:    res.Failure(),
		}
	}
	return &tts.SynthesizeResult{Path: out, Format: tts.FormatMP3}, nil
}

func (s *Synthesizer) args(lang, out, text string) []string {
	args := []string{"--lang", lang}
	if s.slow {
		args = append(args, "--slow")
	}
	if s.tld != "" {
		args = append(args, "--tld", s.tld)
	}
	return append(args, "--output", out, text)
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }
