package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video"},
    {"index": 1, "codec_name": "mp3", "codec_type": "audio", "duration": "12.500000", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"format_name": "mp3", "duration": "12.512000", "size": "200000"}
}`

func TestParseProbe(t *testing.T) {
	res, err := ParseProbe([]byte(probeJSON))
	require.NoError(t, err)

	assert.Equal(t, 1, res.AudioStreamCount())
	assert.InDelta(t, 12.512, res.DurationSeconds(), 1e-9)
}

func TestParseProbe_StreamDurationFallback(t *testing.T) {
	res, err := ParseProbe([]byte(`{"streams":[{"codec_type":"audio","duration":"3.25"}],"format":{}}`))
	require.NoError(t, err)

	assert.InDelta(t, 3.25, res.DurationSeconds(), 1e-9)
}

func TestParseProbe_NoAudio(t *testing.T) {
	res, err := ParseProbe([]byte(`{"streams":[{"codec_type":"video"}],"format":{"duration":"1"}}`))
	require.NoError(t, err)

	assert.Equal(t, 0, res.AudioStreamCount())
}

func TestParseProbe_StderrAroundJSON(t *testing.T) {
	out := "[mp3float @ 0x55d1c0] Header missing\n" + probeJSON + "\n[mp3 @ 0x55d1c0] Estimating duration from bitrate\n"
	res, err := ParseProbe([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, 1, res.AudioStreamCount())
	assert.InDelta(t, 12.512, res.DurationSeconds(), 1e-9)
}

func TestProbe_StderrFromExecRunner(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\necho '[mp3float @ 0x1] Header missing' 1>&2\ncat <<'EOF'\n" + probeJSON + "\nEOF\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	res, err := Probe(context.Background(), NewExecRunner(), script, "clip.mp3", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AudioStreamCount())
}

func TestProbe_QuietLogLevel(t *testing.T) {
	runner := &argsRunner{output: []byte(probeJSON)}
	_, err := Probe(context.Background(), runner, "ffprobe", "clip.mp3", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"-v", "quiet"}, runner.args[:2])
	assert.Equal(t, "clip.mp3", runner.args[len(runner.args)-1])
}

type argsRunner struct {
	args   []string
	output []byte
}

func (r *argsRunner) Run(_ context.Context, _ string, args []string, _ time.Duration) ([]byte, error) {
	r.args = args
	return r.output, nil
}

func TestParseProbe_Garbage(t *testing.T) {
	_, err := ParseProbe([]byte("not json"))
	assert.Error(t, err)
}

func TestExecRunner(t *testing.T) {
	r := NewExecRunner()

	t.Run("combined output", func(t *testing.T) {
		out, err := r.Run(context.Background(), "sh", []string{"-c", "echo out; echo err 1>&2"}, time.Second)
		require.NoError(t, err)
		assert.Contains(t, string(out), "out")
		assert.Contains(t, string(out), "err")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		_, err := r.Run(context.Background(), "sh", []string{"-c", "echo boom; exit 3"}, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := r.Run(context.Background(), "sleep", []string{"5"}, 50*time.Millisecond)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTimeout))
	})
}
