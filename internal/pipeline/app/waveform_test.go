package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clip_service/internal/pipeline/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestComputePeaks_BucketCount(t *testing.T) {
	samples := make([]int16, 20000) // 2.5s @ 8000Hz
	for i := range samples {
		samples[i] = int16(16384 * math.Sin(float64(i)/10))
	}

	peaks := ComputePeaks(samples, 2.5, SamplesPerSecond)

	require.Len(t, peaks, 250)
	for _, p := range peaks {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.InDelta(t, 0.5, peaks[10], 0.01)
}

func TestComputePeaks_FullScaleAndRounding(t *testing.T) {
	samples := []int16{-32768, 0, 100, -5, 12345, 3}

	// 3 buckets of 2 samples
	peaks := ComputePeaks(samples, 3, 1)

	assert.Equal(t, []float64{1, 0.0031, 0.3767}, peaks)
}

func TestComputePeaks_LastBucketTakesRemainder(t *testing.T) {
	samples := make([]int16, 25)
	samples[24] = 16384

	// 2 buckets, size 12.5
	peaks := ComputePeaks(samples, 2, 1)

	require.Len(t, peaks, 2)
	assert.Equal(t, 0.0, peaks[0])
	assert.Equal(t, 0.5, peaks[1])
}

func TestComputePeaks_FewerSamplesThanBuckets(t *testing.T) {
	samples := []int16{100, 200, 300}

	peaks := ComputePeaks(samples, 1, SamplesPerSecond)

	assert.Len(t, peaks, 3)
}

func TestComputePeaks_Empty(t *testing.T) {
	assert.Empty(t, ComputePeaks(nil, 3, SamplesPerSecond))
	assert.Empty(t, ComputePeaks([]int16{1, 2}, 0, SamplesPerSecond))
}

func TestDecodePCM16(t *testing.T) {
	raw := []byte{0x00, 0x80, 0xff, 0x7f, 0x01}
	assert.Equal(t, []int16{-32768, 32767}, DecodePCM16(raw))
}

func TestNewWaveformExtractor_MinimumRate(t *testing.T) {
	assert.Equal(t, 1000, NewWaveformExtractor(nil, "ffmpeg", 200, 0).sampleRate)
	assert.Equal(t, 8000, NewWaveformExtractor(nil, "ffmpeg", 8000, 0).sampleRate)
}

func TestWaveformExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, WaveformFile)
	runner := new(MockRunner)

	// 1 秒 1000Hz 的 PCM，第一個 bucket 內有滿格峰值
	pcm := make([]byte, 2000)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(32767))

	runner.On("Run", mock.Anything, "ffmpeg", mock.MatchedBy(func(args []string) bool {
		return args[len(args)-1] == filepath.Join(dir, "waveform.pcm")
	}), 2*time.Minute).Run(func(args mock.Arguments) {
		cli := args.Get(2).([]string)
		require.NoError(t, os.WriteFile(cli[len(cli)-1], pcm, 0o644))
	}).Return([]byte{}, nil).Once()

	ex := NewWaveformExtractor(runner, "ffmpeg", 1000, 2*time.Minute)
	wf, err := ex.Extract(context.Background(), "in.mp3", 1.0, out)
	require.NoError(t, err)

	assert.Equal(t, 1, wf.Version)
	assert.Equal(t, 1000, wf.SampleRate)
	assert.Equal(t, 100, wf.SamplesPerSecond)
	require.Len(t, wf.Peaks, 100)
	assert.Equal(t, 1.0, wf.Peaks[0])

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc domain.Waveform
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, wf.Peaks, doc.Peaks)
	assert.NoFileExists(t, filepath.Join(dir, "waveform.pcm"))
	runner.AssertExpectations(t)
}

func TestWaveformExtractor_UnknownDurationFromSamples(t *testing.T) {
	dir := t.TempDir()
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		cli := args.Get(2).([]string)
		require.NoError(t, os.WriteFile(cli[len(cli)-1], make([]byte, 1000), 0o644))
	}).Return([]byte{}, nil).Once()

	wf, err := NewWaveformExtractor(runner, "ffmpeg", 1000, 0).Extract(context.Background(), "in.mp3", 0, filepath.Join(dir, WaveformFile))
	require.NoError(t, err)

	assert.Equal(t, 0.5, wf.Duration)
	assert.Len(t, wf.Peaks, 50)
}

func TestWaveformExtractor_DecodeFailure(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("exit status 1")).Once()

	_, err := NewWaveformExtractor(runner, "ffmpeg", 8000, 0).Extract(context.Background(), "in.mp3", 3, filepath.Join(t.TempDir(), WaveformFile))
	assert.ErrorContains(t, err, "decode pcm")
}
