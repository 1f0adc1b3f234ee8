package app

import (
	"context"
	"time"

	"clip_service/pkg/logger"
	"clip_service/pkg/media"

	"go.uber.org/zap"
)

// AudioInfo what the probe learned about a valid file
type AudioInfo struct {
	DurationSeconds float64
	AudioStreams    int
}

// Validator 以 ffprobe 確認檔案至少有一條音訊串流
type Validator struct {
	runner  media.Runner
	ffprobe string
	timeout time.Duration
}

// NewValidator create Validator
func NewValidator(runner media.Runner, ffprobe string, timeout time.Duration) *Validator {
	return &Validator{runner: runner, ffprobe: ffprobe, timeout: timeout}
}

// Validate true when path holds at least one audio stream; a failing probe counts as false
func (v *Validator) Validate(ctx context.Context, path string) (AudioInfo, bool) {
	res, err := media.Probe(ctx, v.runner, v.ffprobe, path, v.timeout)
	if err != nil {
		logger.Log.Warn("probe failed", zap.String("path", path), zap.Error(err))
		return AudioInfo{}, false
	}

	info := AudioInfo{
		DurationSeconds: res.DurationSeconds(),
		AudioStreams:    res.AudioStreamCount(),
	}
	return info, info.AudioStreams > 0
}
