package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clip_service/pkg/database"
)

// DefaultAudioExt used when the original filename has no extension
const DefaultAudioExt = ".mp3"

// ErrEmptyObject downloaded object has no bytes
var ErrEmptyObject = errors.New("object is empty")

// Fetcher 從 object store 下載原始上傳檔到工作目錄
type Fetcher struct {
	store   database.ObjectStore
	timeout time.Duration
}

// NewFetcher create Fetcher, timeout bounds one download (0 = no limit)
func NewFetcher(store database.ObjectStore, timeout time.Duration) *Fetcher {
	return &Fetcher{store: store, timeout: timeout}
}

// Fetch download storageKey into workDir/original{ext}, return the local path
func (f *Fetcher) Fetch(ctx context.Context, storageKey, originalFilename, workDir string) (string, error) {
	dest := filepath.Join(workDir, "original"+AudioExt(originalFilename))

	ctx, cancel := withTransferTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.store.DownloadFile(ctx, storageKey, dest); err != nil {
		return "", fmt.Errorf("download %s: %w", storageKey, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dest, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("download %s: %w", storageKey, ErrEmptyObject)
	}
	return dest, nil
}

func withTransferTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// AudioExt lower-cased extension of filename, DefaultAudioExt when it has none
func AudioExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" || ext == "." {
		return DefaultAudioExt
	}
	return ext
}

// AudioMimeType mime type by audio extension
func AudioMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".mp4", ".aac":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".opus":
		return "audio/opus"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
