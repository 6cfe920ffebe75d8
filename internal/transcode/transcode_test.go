package transcode

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
	"github.com/nadzzz/ttsbroker/internal/scratch"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

func newInput(t *testing.T) (*scratch.Space, string) {
	t.Helper()
	s, err := scratch.New(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })

	in, err := s.Path("say-*.aiff")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, []byte("FORM....AIFF"), 0o600))
	return s, in
}

// writeLast simulates a converter writing its final argument.
func writeLast(t *testing.T) func(mock.Call) command.Result {
	return func(c mock.Call) command.Result {
		require.NoError(t, os.WriteFile(c.Last(), []byte("RIFF....WAVE"), 0o600))
		return command.Result{Name: c.Name}
	}
}

func TestNew(t *testing.T) {
	tr, err := New(config.TranscodeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ToolAfconvert, tr.Tool())
	assert.Equal(t, "afconvert", tr.command)
	assert.Equal(t, DefaultSampleRate, tr.sampleRate)
	assert.Equal(t, tts.FormatWAV, tr.Target())

	_, err = New(config.TranscodeConfig{Tool: "sox"}, nil)
	assert.Error(t, err)
}

func TestTranscode_AfconvertArgs(t *testing.T) {
	r := &mock.Runner{Respond: writeLast(t)}
	tr, err := New(config.TranscodeConfig{}, r)
	require.NoError(t, err)
	space, in := newInput(t)

	out, err := tr.Transcode(context.Background(), space, in)
	require.NoError(t, err)

	require.Equal(t, 1, r.CallCount())
	call := r.Call(0)
	assert.Equal(t, "afconvert", call.Name)
	assert.Equal(t, []string{"-f", "WAVE", "-d", "LEI16@22050", in, out}, call.Args)
	assert.Equal(t, ".wav", out[len(out)-4:])
	assert.FileExists(t, out)
}

func TestTranscode_FFmpegArgs(t *testing.T) {
	r := &mock.Runner{Respond: writeLast(t)}
	tr, err := New(config.TranscodeConfig{Tool: ToolFFmpeg, Command: "/usr/bin/ffmpeg", SampleRate: 16000}, r)
	require.NoError(t, err)
	space, in := newInput(t)

	out, err := tr.Transcode(context.Background(), space, in)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/ffmpeg", r.Call(0).Name)
	assert.Equal(t,
		[]string{"-nostdin", "-y", "-loglevel", "error", "-i", in, "-acodec", "pcm_s16le", "-ar", "16000", "-f", "wav", out},
		r.Call(0).Args)
}

func TestTranscode_Failure(t *testing.T) {
	r := &mock.Runner{Respond: func(c mock.Call) command.Result {
		_ = os.WriteFile(c.Last(), []byte("partial"), 0o600)
		return command.Result{Name: c.Name, ExitCode: 1, Stderr: "Error: AudioFileOpen failed ('typ?')"}
	}}
	tr, err := New(config.TranscodeConfig{}, r)
	require.NoError(t, err)
	space, in := newInput(t)

	_, err = tr.Transcode(context.Background(), space, in)
	require.Error(t, err)

	var tErr *Error
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "afconvert", tErr.Tool)
	assert.Equal(t, 1, tErr.ExitCode)
	assert.Contains(t, tErr.Stderr, "AudioFileOpen")

	// Partial output removed, input left for the space owner.
	entries, err := os.ReadDir(space.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.FileExists(t, in)
}

func TestTranscode_EmptyOutput(t *testing.T) {
	r := &mock.Runner{} // exits 0 without writing anything
	tr, err := New(config.TranscodeConfig{}, r)
	require.NoError(t, err)
	space, in := newInput(t)

	_, err = tr.Transcode(context.Background(), space, in)
	var tErr *Error
	assert.True(t, errors.As(err, &tErr))
}
