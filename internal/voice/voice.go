// Package voice maps language codes and optional caller overrides to an
// engine voice name.
package voice

import "github.com/nadzzz/ttsbroker/internal/message"

// DefaultLanguage is assumed when a request does not name one.
const DefaultLanguage = "en"

// defaultVoices maps ISO-639-1 language codes to macOS voice names. An empty
// name means the engine's system default voice.
var defaultVoices = map[string]string{
	"en": "",         // system default
	"zh": "Tingting", // Mandarin Chinese
	"hi": "Lekha",    // Hindi
	"ta": "Vani",     // Tamil
}

// Resolver picks the voice for a request. It never fails: unknown languages
// resolve to the engine default.
type Resolver struct {
	voices map[string]string
}

// NewResolver creates a Resolver from the built-in table merged with the
// given overrides (language -> voice name).
func NewResolver(overrides map[string]string) *Resolver {
	voices := make(map[string]string, len(defaultVoices)+len(overrides))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range overrides {
		voices[k] = v
	}
	return &Resolver{voices: voices}
}

// Resolve returns the voice selection for language. A non-empty explicit voice
// is used verbatim regardless of language.
func (r *Resolver) Resolve(language, explicit string) message.VoiceSelection {
	if language == "" {
		language = DefaultLanguage
	}
	if explicit != "" {
		return message.VoiceSelection{Voice: explicit, Language: language}
	}
	return message.VoiceSelection{Voice: r.voices[language], Language: language}
}
