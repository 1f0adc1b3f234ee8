package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"clip_service/internal/pipeline/domain"

	"github.com/disintegration/imaging"
)

const (
	// OGWidth social preview width
	OGWidth = 1200
	// OGHeight social preview height
	OGHeight = 630
	// WavePadding horizontal padding of the waveform on both previews
	WavePadding = 50
	// WaveHeight waveform band height on both previews
	WaveHeight = 200
)

// ImageRenderer 背景 scale-to-fill 後疊上靜態波形
type ImageRenderer struct {
	background string
	bgColor    color.NRGBA
	waveColor  color.NRGBA
}

// NewImageRenderer create ImageRenderer, background may be empty (solid bgColor)
func NewImageRenderer(background, bgColor, waveColor string) *ImageRenderer {
	return &ImageRenderer{
		background: background,
		bgColor:    ParseHexColor(bgColor, color.NRGBA{R: 0x1b, G: 0x1b, B: 0x2f, A: 0xff}),
		waveColor:  ParseHexColor(waveColor, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
	}
}

// Render write a OGWidth x OGHeight png of the waveform to out
func (r *ImageRenderer) Render(_ context.Context, wf *domain.Waveform, out string) error {
	if wf == nil || len(wf.Peaks) == 0 {
		return fmt.Errorf("render og image: empty waveform")
	}

	bg, err := r.backgroundImage()
	if err != nil {
		return err
	}

	wave := DrawWaveform(wf.Peaks, OGWidth-2*WavePadding, WaveHeight, r.waveColor)
	canvas := imaging.Overlay(bg, wave, image.Pt(WavePadding, (OGHeight-WaveHeight)/2), 1.0)

	if err := imaging.Save(canvas, out); err != nil {
		return fmt.Errorf("save og image: %w", err)
	}
	return nil
}

func (r *ImageRenderer) backgroundImage() (image.Image, error) {
	if r.background == "" {
		return imaging.New(OGWidth, OGHeight, r.bgColor), nil
	}
	src, err := imaging.Open(r.background)
	if err != nil {
		return nil, fmt.Errorf("open background %s: %w", r.background, err)
	}
	return imaging.Fill(src, OGWidth, OGHeight, imaging.Center, imaging.Lanczos), nil
}

// DrawWaveform mirrored bar waveform on a transparent width x height image.
// Each column shows the highest peak that maps onto it.
func DrawWaveform(peaks []float64, width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if len(peaks) == 0 || width <= 0 || height <= 0 {
		return img
	}

	mid := height / 2
	for x := 0; x < width; x++ {
		from := x * len(peaks) / width
		to := (x + 1) * len(peaks) / width
		if to <= from {
			to = from + 1
		}

		var peak float64
		for _, p := range peaks[from:to] {
			if p > peak {
				peak = p
			}
		}

		half := int(peak * float64(height) / 2)
		if half < 1 {
			half = 1
		}
		for y := mid - half; y < mid+half; y++ {
			if y >= 0 && y < height {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

// ParseHexColor "#rrggbb" / "rrggbb" / "0xrrggbb", fallback on anything else
func ParseHexColor(s string, fallback color.NRGBA) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// ffmpegColor color in ffmpeg "0xRRGGBB" syntax
func ffmpegColor(c color.NRGBA) string {
	return fmt.Sprintf("0x%02x%02x%02x", c.R, c.G, c.B)
}
