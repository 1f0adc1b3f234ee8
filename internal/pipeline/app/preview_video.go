package app

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	"clip_service/pkg/media"
)

// TeaserFPS frame rate of the preview video
const TeaserFPS = 30

// VideoRenderer 背景循環 + 動態波形 + 原始音訊，輸出 H.264/AAC mp4
type VideoRenderer struct {
	runner     media.Runner
	ffmpeg     string
	background string
	bgColor    color.NRGBA
	waveColor  color.NRGBA
	maxSeconds int
	timeout    time.Duration
}

// NewVideoRenderer create VideoRenderer
func NewVideoRenderer(runner media.Runner, ffmpeg, background, bgColor, waveColor string, maxSeconds int, timeout time.Duration) *VideoRenderer {
	return &VideoRenderer{
		runner:     runner,
		ffmpeg:     ffmpeg,
		background: background,
		bgColor:    ParseHexColor(bgColor, color.NRGBA{R: 0x1b, G: 0x1b, B: 0x2f, A: 0xff}),
		waveColor:  ParseHexColor(waveColor, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		maxSeconds: maxSeconds,
		timeout:    timeout,
	}
}

// TeaserDuration min(maxSeconds, audio duration); maxSeconds when the duration is unknown
func TeaserDuration(maxSeconds int, audioSeconds float64) float64 {
	limit := float64(maxSeconds)
	if audioSeconds <= 0 {
		return limit
	}
	return math.Min(limit, audioSeconds)
}

// Render encode the teaser of audio into out
func (v *VideoRenderer) Render(ctx context.Context, audio string, duration float64, out string) error {
	if _, err := v.runner.Run(ctx, v.ffmpeg, v.Args(audio, duration, out), v.timeout); err != nil {
		return fmt.Errorf("encode teaser: %w", err)
	}
	return nil
}

// Args ffmpeg arguments of one teaser encode
func (v *VideoRenderer) Args(audio string, duration float64, out string) []string {
	size := fmt.Sprintf("%dx%d", OGWidth, OGHeight)
	fps := strconv.Itoa(TeaserFPS)

	var args []string
	if v.background != "" {
		args = append(args, "-loop", "1", "-framerate", fps, "-i", v.background)
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%s:r=%s", ffmpegColor(v.bgColor), size, fps))
	}
	args = append(args, "-i", audio)

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1[bg];"+
			"[1:a]showwaves=s=%dx%d:mode=cline:rate=%d:colors=%s[wave];"+
			"[bg][wave]overlay=%d:(H-h)/2:shortest=1,format=yuv420p[v]",
		OGWidth, OGHeight, OGWidth, OGHeight,
		OGWidth-2*WavePadding, WaveHeight, TeaserFPS, ffmpegColor(v.waveColor),
		WavePadding,
	)

	return append(args,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "1:a",
		"-t", strconv.FormatFloat(TeaserDuration(v.maxSeconds, duration), 'f', 3, 64),
		"-r", fps,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y",
		out,
	)
}
