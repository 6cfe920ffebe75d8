package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nadzzz/ttsbroker/internal/message"
)

func TestResolve(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name     string
		language string
		explicit string
		want     message.VoiceSelection
	}{
		{name: "mandarin", language: "zh", want: message.VoiceSelection{Voice: "Tingting", Language: "zh"}},
		{name: "hindi", language: "hi", want: message.VoiceSelection{Voice: "Lekha", Language: "hi"}},
		{name: "tamil", language: "ta", want: message.VoiceSelection{Voice: "Vani", Language: "ta"}},
		{name: "english uses engine default", language: "en", want: message.VoiceSelection{Language: "en"}},
		{name: "unknown code uses engine default", language: "xx", want: message.VoiceSelection{Language: "xx"}},
		{name: "empty language defaults to english", language: "", want: message.VoiceSelection{Language: "en"}},
		{name: "explicit voice wins", language: "en", explicit: "CustomVoice", want: message.VoiceSelection{Voice: "CustomVoice", Language: "en"}},
		{name: "explicit voice wins over table", language: "zh", explicit: "CustomVoice", want: message.VoiceSelection{Voice: "CustomVoice", Language: "zh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.language, tt.explicit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoOverride(t *testing.T) {
	sel := NewResolver(nil).Resolve("xx", "")
	assert.False(t, sel.HasVoice())
}

func TestNewResolver_Overrides(t *testing.T) {
	r := NewResolver(map[string]string{
		"en": "Samantha",
		"fr": "Thomas",
	})

	assert.Equal(t, "Samantha", r.Resolve("en", "").Voice)
	assert.Equal(t, "Thomas", r.Resolve("fr", "").Voice)
	assert.Equal(t, "Tingting", r.Resolve("zh", "").Voice, "defaults survive the merge")
}

func TestNewResolver_DoesNotMutateDefaults(t *testing.T) {
	_ = NewResolver(map[string]string{"zh": "Meijia"})
	assert.Equal(t, "Tingting", NewResolver(nil).Resolve("zh", "").Voice)
}
