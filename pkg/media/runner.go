package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clip_service/pkg/logger"

	"go.uber.org/zap"
)

// ErrTimeout returned when an external tool exceeds its deadline
var ErrTimeout = errors.New("external tool timed out")

// Runner run an external capability (ffmpeg, ffprobe, yt-dlp ...) with args and timeout,
// return combined output, error on non-zero exit or timeout
type Runner interface {
	Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, error)
}

// ExecRunner Runner backed by os/exec
type ExecRunner struct{}

// NewExecRunner create ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implement Runner
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Log.Debug("exec", zap.String("name", name), zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%s after %s: %w", name, timeout, ErrTimeout)
		}
		return output, fmt.Errorf("%s: %w: %s", name, err, tail(output, 512))
	}
	return output, nil
}

// IsAvailable check binary is in PATH
func IsAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
