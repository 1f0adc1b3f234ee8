package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProbeResult parsed ffprobe output
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream single stream in the container
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat container-level metadata
type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// Probe run ffprobe on path and parse the json
func Probe(ctx context.Context, runner Runner, binary, path string, timeout time.Duration) (ProbeResult, error) {
	output, err := runner.Run(ctx, binary, []string{
		"-v", "quiet",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	}, timeout)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe: %w", err)
	}
	return ParseProbe(output)
}

// ParseProbe parse ffprobe json output, runner output may carry stderr lines around the json
func ParseProbe(output []byte) (ProbeResult, error) {
	start := bytes.IndexByte(output, '{')
	end := bytes.LastIndexByte(output, '}')
	if start < 0 || end < start {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: no json object in output")
	}

	var result ProbeResult
	if err := json.Unmarshal(output[start:end+1], &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreamCount number of audio streams
func (r ProbeResult) AudioStreamCount() int {
	count := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds container duration, falling back to the first audio stream, 0 when unknown
func (r ProbeResult) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			if d := parseFloat(s.Duration); d > 0 {
				return d
			}
		}
	}
	return 0
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
