package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clip_service/internal/pipeline/domain"
	"clip_service/pkg/media"
)

const (
	// WaveformVersion version field of the waveform json
	WaveformVersion = 1
	// SamplesPerSecond peaks per second of audio
	SamplesPerSecond = 100
	// MinDecodeRate lowest PCM decode rate regardless of config
	MinDecodeRate = 1000

	maxAmplitude = 32768.0
)

// WaveformExtractor decode to mono s16le PCM with ffmpeg, then bucket peaks
type WaveformExtractor struct {
	runner     media.Runner
	ffmpeg     string
	sampleRate int
	timeout    time.Duration
}

// NewWaveformExtractor create WaveformExtractor, sampleRate is raised to at least 10x the peak rate
func NewWaveformExtractor(runner media.Runner, ffmpeg string, sampleRate int, timeout time.Duration) *WaveformExtractor {
	floor := MinDecodeRate
	if f := 10 * SamplesPerSecond; f > floor {
		floor = f
	}
	if sampleRate < floor {
		sampleRate = floor
	}
	return &WaveformExtractor{runner: runner, ffmpeg: ffmpeg, sampleRate: sampleRate, timeout: timeout}
}

// Extract write the waveform json of src to out
func (w *WaveformExtractor) Extract(ctx context.Context, src string, duration float64, out string) (*domain.Waveform, error) {
	pcmPath := filepath.Join(filepath.Dir(out), "waveform.pcm")
	defer os.Remove(pcmPath)

	if _, err := w.runner.Run(ctx, w.ffmpeg, []string{
		"-v", "error",
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(w.sampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		pcmPath,
	}, w.timeout); err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}

	raw, err := os.ReadFile(pcmPath)
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	samples := DecodePCM16(raw)
	if len(samples) == 0 {
		return nil, fmt.Errorf("decode pcm: no samples")
	}
	if duration <= 0 {
		duration = float64(len(samples)) / float64(w.sampleRate)
	}

	wf := &domain.Waveform{
		Version:          WaveformVersion,
		SampleRate:       w.sampleRate,
		SamplesPerSecond: SamplesPerSecond,
		Duration:         math.Round(duration*1000) / 1000,
		Peaks:            ComputePeaks(samples, duration, SamplesPerSecond),
	}

	data, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("marshal waveform: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return nil, fmt.Errorf("write waveform: %w", err)
	}
	return wf, nil
}

// DecodePCM16 little-endian signed 16 bit samples, a trailing odd byte is dropped
func DecodePCM16(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples
}

// ComputePeaks one normalized peak per bucket, ceil(duration*perSecond) buckets.
// When there are fewer samples than buckets the trailing buckets are omitted.
func ComputePeaks(samples []int16, duration float64, perSecond int) []float64 {
	buckets := int(math.Ceil(duration * float64(perSecond)))
	peaks := make([]float64, 0, max(buckets, 0))
	if buckets <= 0 || len(samples) == 0 {
		return peaks
	}

	size := float64(len(samples)) / (duration * float64(perSecond))
	if size < 1 {
		size = 1
	}

	for i := 0; i < buckets; i++ {
		start := int(float64(i) * size)
		if start >= len(samples) {
			break
		}
		end := int(float64(i+1) * size)
		if end > len(samples) || i == buckets-1 {
			end = len(samples)
		}
		if end <= start {
			end = start + 1
		}

		var peak int32
		for _, s := range samples[start:end] {
			v := int32(s)
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		peaks = append(peaks, math.Round(float64(peak)/maxAmplitude*1e4)/1e4)
	}
	return peaks
}
