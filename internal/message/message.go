// Package message defines the request-scoped data types flowing through the
// ttsbroker pipeline. None of them outlive a single HTTP request.
package message

import "unicode/utf8"

// previewRunes is how much of the input text is kept in log lines.
const previewRunes = 50

// SynthesisRequest is a parsed POST /tts body.
type SynthesisRequest struct {
	// ID identifies the request in logs and scratch directory names.
	ID string `json:"-"`

	// Text is the raw text to speak. It must be non-empty.
	Text string `json:"text" example:"Hello there. How are you?"`

	// Language is the ISO-639-1 code selecting the voice (default "en").
	Language string `json:"language,omitempty" example:"en"`

	// Voice overrides table-based voice selection when set.
	Voice string `json:"voice,omitempty" example:"Samantha"`
}

// Preview returns a log-safe prefix of the request text.
func (r *SynthesisRequest) Preview() string {
	return Preview(r.Text)
}

// VoiceSelection is the engine voice chosen for a request.
type VoiceSelection struct {
	// Voice is the engine voice identifier. Empty means the engine default.
	Voice string

	// Language is the request language the voice was resolved from.
	Language string
}

// HasVoice reports whether a specific voice was selected.
func (v VoiceSelection) HasVoice() bool {
	return v.Voice != ""
}

// AudioArtifact is the encoded audio returned to the client.
type AudioArtifact struct {
	// Bytes is the complete encoded audio file.
	Bytes []byte

	// MIMEType is the Content-Type of Bytes (e.g. "audio/wav").
	MIMEType string
}

// ByteLength returns the size of the artifact in bytes.
func (a *AudioArtifact) ByteLength() int {
	return len(a.Bytes)
}

// Preview truncates s to a short, rune-safe prefix for logging.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewRunes]) + "..."
}
