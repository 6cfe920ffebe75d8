// Package tts defines the interface for text-to-speech synthesis.
//
// ttsbroker ships two interchangeable engines: the local macOS "say" command
// and the gTTS command-line client. Exactly one is wired in at startup; the
// dispatcher and HTTP handler only depend on [Synthesizer].
package tts

import (
	"context"

	"github.com/nadzzz/ttsbroker/internal/message"
	"github.com/nadzzz/ttsbroker/internal/scratch"
)

// Format is an audio container format.
type Format string

const (
	// FormatAIFF is the native container written by macOS say.
	FormatAIFF Format = "aiff"

	// FormatWAV is RIFF/WAVE, the format served to clients by the say engine.
	FormatWAV Format = "wav"

	// FormatMP3 is MPEG audio layer III as produced by gTTS.
	FormatMP3 Format = "mp3"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatAIFF:
		return "audio/aiff"
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Voice is the resolved voice and language for the request.
	Voice message.VoiceSelection

	// Space is the request's scratch space. Output files must be created in it.
	Space *scratch.Space
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Path is the scratch file holding the encoded audio.
	Path string

	// Format is the container of the file at Path.
	Format Format

	// Voice is the voice that actually produced the audio. Empty means the
	// engine default.
	Voice string

	// FellBack is true when the requested voice failed and the engine default
	// was used instead.
	FellBack bool
}

// Synthesizer converts text to an audio file.
type Synthesizer interface {
	// Name returns the engine identifier (e.g. "say", "gtts").
	Name() string

	// Synthesize writes audio for text into opts.Space. Failures are reported
	// as *SynthesisError.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// AvailabilityReporter is implemented by engines whose dependency may be
// missing on the host. Availability is determined once, when the engine is
// constructed.
type AvailabilityReporter interface {
	Available() bool
}

// Available reports whether s can synthesize. Engines that do not implement
// [AvailabilityReporter] are assumed to be available.
func Available(s Synthesizer) bool {
	if p, ok := s.(AvailabilityReporter); ok {
		return p.Available()
	}
	return true
}
