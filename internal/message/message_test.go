package message

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("a", 80)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)

	// Multi-byte text is cut on rune boundaries.
	zh := strings.Repeat("你好", 40)
	got = Preview(zh)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 53, utf8.RuneCountInString(got))
}

func TestSynthesisRequest_Preview(t *testing.T) {
	r := &SynthesisRequest{Text: "Hello there."}
	assert.Equal(t, "Hello there.", r.Preview())
}

func TestVoiceSelection_HasVoice(t *testing.T) {
	assert.False(t, VoiceSelection{Language: "en"}.HasVoice())
	assert.True(t, VoiceSelection{Voice: "Tingting", Language: "zh"}.HasVoice())
}

func TestAudioArtifact_ByteLength(t *testing.T) {
	a := &AudioArtifact{Bytes: []byte("RIFF1234"), MIMEType: "audio/wav"}
	assert.Equal(t, 8, a.ByteLength())
}
