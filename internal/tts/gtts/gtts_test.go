package gtts

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/ttsbroker/internal/command"
	"github.com/nadzzz/ttsbroker/internal/command/mock"
	"github.com/nadzzz/ttsbroker/internal/config"
	"github.com/nadzzz/ttsbroker/internal/message"
	"github.com/nadzzz/ttsbroker/internal/scratch"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

func newSpace(t *testing.T) *scratch.Space {
	t.Helper()
	s, err := scratch.New(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })
	return s
}

func succeed(t *testing.T) func(mock.Call) command.Result {
	return func(c mock.Call) command.Result {
		out, ok := c.ArgAfter("--output")
		require.True(t, ok)
		require.NoError(t, os.WriteFile(out, []byte("ID3\x04mp3"), 0o600))
		return command.Result{Name: c.Name}
	}
}

func TestLanguage(t *testing.T) {
	s := New(config.GTTSConfig{}, WithAvailability(true))

	tests := []struct {
		code string
		want string
	}{
		{"en", "en"},
		{"zh", "zh-CN"},
		{"hi", "hi"},
		{"ta", "ta"},
		{"xx", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Language(tt.code))
		})
	}
}

func TestLanguage_Overrides(t *testing.T) {
	s := New(config.GTTSConfig{Languages: map[string]string{"fr": "fr", "zh": "zh-TW"}}, WithAvailability(true))
	assert.Equal(t, "fr", s.Language("fr"))
	assert.Equal(t, "zh-TW", s.Language("zh"))
	assert.Equal(t, "hi", s.Language("hi"))
}

func TestSynthesize_Args(t *testing.T) {
	r := &mock.Runner{Respond: succeed(t)}
	s := New(config.GTTSConfig{}, WithRunner(r), WithAvailability(true))
	space := newSpace(t)

	res, err := s.Synthesize(context.Background(), "你好", tts.SynthesizeOpts{
		Voice: message.VoiceSelection{Voice: "Tingting", Language: "zh"},
		Space: space,
	})
	require.NoError(t, err)

	require.Equal(t, 1, r.CallCount())
	call := r.Call(0)
	assert.Equal(t, "gtts-cli", call.Name)
	assert.Equal(t, []string{"--lang", "zh-CN", "--output", res.Path, "你好"}, call.Args)
	assert.Equal(t, tts.FormatMP3, res.Format)
	assert.FileExists(t, res.Path)
}

func TestSynthesize_SlowAndTLD(t *testing.T) {
	r := &mock.Runner{Respond: succeed(t)}
	s := New(config.GTTSConfig{Command: "/opt/bin/gtts-cli", Slow: true, TLD: "co.uk"}, WithRunner(r), WithAvailability(true))

	res, err := s.Synthesize(context.Background(), "Hello", tts.SynthesizeOpts{
		Voice: message.VoiceSelection{Language: "en"},
		Space: newSpace(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"--lang", "en", "--slow", "--tld", "co.uk", "--output", res.Path, "Hello"}, r.Call(0).Args)
	assert.Equal(t, "/opt/bin/gtts-cli", r.Call(0).Name)
}

func TestSynthesize_FailureIsImmediate(t *testing.T) {
	r := &mock.Runner{Respond: func(c mock.Call) command.Result {
		return command.Result{Name: c.Name, ExitCode: 1, Stderr: "gTTSError: Failed to connect"}
	}}
	s := New(config.GTTSConfig{}, WithRunner(r), WithAvailability(true))
	space := newSpace(t)

	_, err := s.Synthesize(context.Background(), "Hello", tts.SynthesizeOpts{
		Voice: message.VoiceSelection{Language: "en"},
		Space: space,
	})

	var synthErr *tts.SynthesisError
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, "gtts", synthErr.Backend)
	assert.Equal(t, "gTTSError: Failed to connect", synthErr.Stderr)
	assert.Equal(t, 1, r.CallCount(), "no retry")

	entries, err := os.ReadDir(space.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesize_Unavailable(t *testing.T) {
	r := &mock.Runner{}
	s := New(config.GTTSConfig{}, WithRunner(r), WithAvailability(false))

	assert.False(t, s.Available())
	_, err := s.Synthesize(context.Background(), "Hello", tts.SynthesizeOpts{Space: newSpace(t)})
	assert.ErrorIs(t, err, tts.ErrBackendUnavailable)
	assert.Zero(t, r.CallCount())
}

func TestNew_LooksUpCommand(t *testing.T) {
	s := New(config.GTTSConfig{Command: "ttsbroker-no-such-gtts-cli"})
	assert.False(t, s.Available())
	assert.False(t, tts.Available(s))
	assert.Equal(t, "gtts", s.Name())
	assert.NoError(t, s.Close())
}
