package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"
	"time"

	"clip_service/pkg/logger"
	"clip_service/pkg/media"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// register decoders beyond jpeg / png / gif
	_ "golang.org/x/image/webp"
)

const (
	// ThumbnailQuality jpeg quality of thumbnail.jpg
	ThumbnailQuality = 85

	maxImageBytes = 20 << 20
)

// ErrNoThumbnailSource every source was skipped or failed
var ErrNoThumbnailSource = errors.New("no thumbnail source produced an image")

// ImageKind 決定裁切方式
type ImageKind int

const (
	// KindPhoto cover image, cropped to fill the square
	KindPhoto ImageKind = iota
	// KindBranded generated artwork, fit inside the square without cropping
	KindBranded
)

// ThumbnailRequest inputs the sources may use, every field is optional
type ThumbnailRequest struct {
	ThumbnailURL     string
	SourceURL        string
	PreviewImagePath string
	WorkDir          string
}

// SourceImage image produced by one source
type SourceImage struct {
	Image image.Image
	Kind  ImageKind
}

// ThumbnailSource one candidate in the fallback chain.
// Fetch returns (nil, nil) when the request carries nothing this source can use.
type ThumbnailSource interface {
	Name() string
	Fetch(ctx context.Context, req ThumbnailRequest) (*SourceImage, error)
}

// ThumbnailResolver try sources in order, first usable image wins
type ThumbnailResolver struct {
	sources []ThumbnailSource
	size    int
	bg      color.NRGBA
}

// NewThumbnailResolver create ThumbnailResolver
func NewThumbnailResolver(size int, bgColor string, sources ...ThumbnailSource) *ThumbnailResolver {
	return &ThumbnailResolver{
		sources: sources,
		size:    size,
		bg:      ParseHexColor(bgColor, color.NRGBA{R: 0x1b, G: 0x1b, B: 0x2f, A: 0xff}),
	}
}

// Resolve write a size x size jpeg to out, return the name of the source used
func (r *ThumbnailResolver) Resolve(ctx context.Context, req ThumbnailRequest, out string) (string, error) {
	for _, src := range r.sources {
		img, err := src.Fetch(ctx, req)
		if err != nil {
			logger.Log.Warn("thumbnail source failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		if img == nil || img.Image == nil {
			continue
		}

		thumb := r.Square(img)
		if err := imaging.Save(thumb, out, imaging.JPEGQuality(ThumbnailQuality)); err != nil {
			return "", fmt.Errorf("save thumbnail: %w", err)
		}
		return src.Name(), nil
	}
	return "", ErrNoThumbnailSource
}

// Square photo: center crop to fill; branded: fit and pad with the background color
func (r *ThumbnailResolver) Square(img *SourceImage) image.Image {
	if img.Kind == KindPhoto {
		return imaging.Fill(img.Image, r.size, r.size, imaging.Center, imaging.Lanczos)
	}
	fit := imaging.Fit(img.Image, r.size, r.size, imaging.Lanczos)
	return imaging.PasteCenter(imaging.New(r.size, r.size, r.bg), fit)
}

// DirectURLSource thumbnail url supplied with the job
type DirectURLSource struct {
	client *http.Client
}

// NewDirectURLSource create DirectURLSource
func NewDirectURLSource(client *http.Client) *DirectURLSource {
	return &DirectURLSource{client: client}
}

// Name implement ThumbnailSource
func (s *DirectURLSource) Name() string { return "direct_url" }

// Fetch implement ThumbnailSource
func (s *DirectURLSource) Fetch(ctx context.Context, req ThumbnailRequest) (*SourceImage, error) {
	if req.ThumbnailURL == "" {
		return nil, nil
	}
	img, err := downloadImage(ctx, s.client, req.ThumbnailURL)
	if err != nil {
		return nil, err
	}
	return &SourceImage{Image: img, Kind: KindPhoto}, nil
}

// ExtractedURLSource ask yt-dlp for the thumbnail of the source page, then download it
type ExtractedURLSource struct {
	runner  media.Runner
	binary  string
	timeout time.Duration
	client  *http.Client
}

// NewExtractedURLSource create ExtractedURLSource
func NewExtractedURLSource(runner media.Runner, binary string, timeout time.Duration, client *http.Client) *ExtractedURLSource {
	return &ExtractedURLSource{runner: runner, binary: binary, timeout: timeout, client: client}
}

// Name implement ThumbnailSource
func (s *ExtractedURLSource) Name() string { return "source_url" }

// Fetch implement ThumbnailSource
func (s *ExtractedURLSource) Fetch(ctx context.Context, req ThumbnailRequest) (*SourceImage, error) {
	if req.SourceURL == "" {
		return nil, nil
	}

	out, err := s.runner.Run(ctx, s.binary, []string{
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--print", "thumbnail",
		req.SourceURL,
	}, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("extract thumbnail url: %w", err)
	}

	thumbURL := firstURL(string(out))
	if thumbURL == "" {
		return nil, fmt.Errorf("extract thumbnail url: no url in output")
	}

	img, err := downloadImage(ctx, s.client, thumbURL)
	if err != nil {
		return nil, err
	}
	return &SourceImage{Image: img, Kind: KindPhoto}, nil
}

// PreviewImageSource the rendered social preview, branded last resort
type PreviewImageSource struct{}

// Name implement ThumbnailSource
func (PreviewImageSource) Name() string { return "preview_image" }

// Fetch implement ThumbnailSource
func (PreviewImageSource) Fetch(_ context.Context, req ThumbnailRequest) (*SourceImage, error) {
	if req.PreviewImagePath == "" {
		return nil, nil
	}
	img, err := imaging.Open(req.PreviewImagePath)
	if err != nil {
		return nil, fmt.Errorf("open preview image: %w", err)
	}
	return &SourceImage{Image: img, Kind: KindBranded}, nil
}

func downloadImage(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxImageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

func firstURL(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line
		}
	}
	return ""
}
