package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clip_service/internal/pipeline/domain"
	"clip_service/internal/pipeline/repository"
	"clip_service/pkg/logger"
	"clip_service/pkg/metrics"

	"go.uber.org/zap"
)

// 產出檔名，同時也是 object key 的最後一段
const (
	WaveformFile  = "waveform.json"
	OGImageFile   = "og.png"
	TeaserFile    = "teaser.mp4"
	ThumbnailFile = "thumbnail.jpg"
)

// markFailedTimeout deadline of the failure bookkeeping after the job context is gone
const markFailedTimeout = 10 * time.Second

// ObjectFetcher definition fetch step
type ObjectFetcher interface {
	Fetch(ctx context.Context, storageKey, originalFilename, workDir string) (string, error)
}

// MediaValidator definition validate step
type MediaValidator interface {
	Validate(ctx context.Context, path string) (AudioInfo, bool)
}

// WaveformGenerator definition waveform step
type WaveformGenerator interface {
	Extract(ctx context.Context, src string, duration float64, out string) (*domain.Waveform, error)
}

// PreviewImageRenderer definition og image step
type PreviewImageRenderer interface {
	Render(ctx context.Context, wf *domain.Waveform, out string) error
}

// PreviewVideoRenderer definition teaser step
type PreviewVideoRenderer interface {
	Render(ctx context.Context, audio string, duration float64, out string) error
}

// ThumbnailGenerator definition thumbnail step
type ThumbnailGenerator interface {
	Resolve(ctx context.Context, req ThumbnailRequest, out string) (string, error)
}

// AssetPublisher definition upload step
type AssetPublisher interface {
	Publish(ctx context.Context, localPath, itemID, fileName, mimeType string) (domain.PublishedAsset, error)
	URL(storageKey string) string
}

// JobProcessor 處理一個 ProcessingJob，consumer 只依賴這個介面
type JobProcessor interface {
	Process(ctx context.Context, job domain.ProcessingJob) (*domain.Result, error)
}

// Steps the components an Orchestrator drives
type Steps struct {
	Fetcher   ObjectFetcher
	Validator MediaValidator
	Waveform  WaveformGenerator
	Image     PreviewImageRenderer
	Video     PreviewVideoRenderer
	Thumbnail ThumbnailGenerator
	Publisher AssetPublisher
}

// Orchestrator 依序執行 fetch → validate → waveform → og image → teaser → thumbnail → go live
type Orchestrator struct {
	steps    Steps
	items    repository.ItemRepo
	events   repository.EventRepo
	workRoot string
	now      func() time.Time
}

// NewOrchestrator create Orchestrator
func NewOrchestrator(steps Steps, items repository.ItemRepo, events repository.EventRepo, workRoot string) *Orchestrator {
	if events == nil {
		events = repository.NewNopEventRepo()
	}
	return &Orchestrator{
		steps:    steps,
		items:    items,
		events:   events,
		workRoot: workRoot,
		now:      time.Now,
	}
}

// Process run one attempt of job. Any returned error is a *domain.ProcessingError
// and the item has already been marked failed (best effort), except an item id that
// cannot name a work dir, which is rejected before anything is touched.
func (o *Orchestrator) Process(ctx context.Context, job domain.ProcessingJob) (res *domain.Result, err error) {
	start := o.now()
	log := logger.Log.With(zap.String("item_id", job.ItemID), zap.String("job_id", job.ID()))

	workDir, err := o.workDirFor(job.ItemID)
	if err != nil {
		return nil, domain.NewProcessingError(domain.ErrDownloadFailed, "", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Warn("cleanup work dir failed", zap.Error(rmErr))
		}
	}()

	defer func() {
		metrics.JobDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		var pe *domain.ProcessingError
		if !errors.As(err, &pe) {
			err = domain.NewProcessingError(domain.ErrDatabase, "", err)
		}
		o.markFailed(ctx, job.ItemID, err)
		log.Error("process job failed", zap.String("code", string(domain.CodeOf(err))), zap.Error(err))
	}()

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, domain.NewProcessingError(domain.ErrDownloadFailed, "", fmt.Errorf("create work dir: %w", err))
	}

	if err := o.step("status", func() error {
		return o.items.UpdateStatus(ctx, job.ItemID, domain.ItemProcessing)
	}); err != nil {
		return nil, domain.NewProcessingError(domain.ErrDatabase, "", err)
	}

	var original string
	if err := o.step("fetch", func() (e error) {
		original, e = o.steps.Fetcher.Fetch(ctx, job.StorageKey, job.OriginalFilename, workDir)
		return e
	}); err != nil {
		return nil, domain.NewProcessingError(domain.ErrDownloadFailed, domain.AssetOriginal, err)
	}

	var (
		info  AudioInfo
		valid bool
	)
	_ = o.step("validate", func() error {
		info, valid = o.steps.Validator.Validate(ctx, original)
		if !valid {
			return errors.New("no audio stream")
		}
		return nil
	})
	if !valid {
		return nil, domain.NewProcessingError(domain.ErrInvalidAudio, "", fmt.Errorf("%s has no decodable audio stream", job.OriginalFilename))
	}
	log.Info("audio validated", zap.Float64("duration", info.DurationSeconds), zap.Int("streams", info.AudioStreams))

	result := &domain.Result{ItemID: job.ItemID}

	if err := o.recordOriginal(ctx, job, original, result); err != nil {
		return nil, err
	}

	var wf *domain.Waveform
	waveformPath := filepath.Join(workDir, WaveformFile)
	if err := o.step("waveform", func() (e error) {
		wf, e = o.steps.Waveform.Extract(ctx, original, info.DurationSeconds, waveformPath)
		return e
	}); err != nil {
		return nil, domain.NewProcessingError(domain.ErrGenerationFailed, domain.AssetWaveform, err)
	}
	if err := o.publish(ctx, job.ItemID, domain.AssetWaveform, waveformPath, WaveformFile, "application/json", result); err != nil {
		return nil, err
	}

	ogPath := filepath.Join(workDir, OGImageFile)
	if err := o.step("og_image", func() error {
		return o.steps.Image.Render(ctx, wf, ogPath)
	}); err != nil {
		return nil, domain.NewProcessingError(domain.ErrGenerationFailed, domain.AssetOGImage, err)
	}
	if err := o.publish(ctx, job.ItemID, domain.AssetOGImage, ogPath, OGImageFile, "image/png", result); err != nil {
		return nil, err
	}

	teaserPath := filepath.Join(workDir, TeaserFile)
	if err := o.step("teaser", func() error {
		return o.steps.Video.Render(ctx, original, info.DurationSeconds, teaserPath)
	}); err != nil {
		return nil, domain.NewProcessingError(domain.ErrGenerationFailed, domain.AssetTeaser, err)
	}
	if err := o.publish(ctx, job.ItemID, domain.AssetTeaser, teaserPath, TeaserFile, "video/mp4", result); err != nil {
		return nil, err
	}

	o.thumbnail(ctx, job, workDir, ogPath, result)

	have, err := o.items.ListAssetTypes(ctx, job.ItemID)
	if err != nil {
		return nil, domain.NewProcessingError(domain.ErrDatabase, "", fmt.Errorf("list assets: %w", err))
	}
	if missing := domain.MissingRequired(have); len(missing) > 0 {
		return nil, domain.NewProcessingError(domain.ErrDatabase, "", fmt.Errorf("%w: %v", domain.ErrIncompleteAssets, missing))
	}

	item, err := o.items.MarkLive(ctx, job.ItemID, o.now().UTC())
	if err != nil {
		return nil, domain.NewProcessingError(domain.ErrDatabase, "", fmt.Errorf("mark live: %w", err))
	}

	result.Status = item.Status
	result.PublishedAt = item.PublishedAt
	result.Duration = o.now().Sub(start)

	o.notify(ctx, domain.StatusEvent{
		ItemID:      job.ItemID,
		Status:      domain.ItemLive,
		PublishedAt: item.PublishedAt,
		At:          o.now().UTC(),
	})

	log.Info("item live", zap.Int("assets", len(result.Assets)), zap.Duration("took", result.Duration))
	return result, nil
}

// recordOriginal 原始檔已在 object store，只補 asset 紀錄
func (o *Orchestrator) recordOriginal(ctx context.Context, job domain.ProcessingJob, localPath string, result *domain.Result) error {
	stat, err := os.Stat(localPath)
	if err != nil {
		return domain.NewProcessingError(domain.ErrDownloadFailed, domain.AssetOriginal, err)
	}

	published := domain.PublishedAsset{
		StorageKey: job.StorageKey,
		CDNURL:     o.steps.Publisher.URL(job.StorageKey),
		SizeBytes:  stat.Size(),
	}
	if err := o.items.UpsertAsset(ctx, newAsset(job.ItemID, domain.AssetOriginal, AudioMimeType(filepath.Ext(localPath)), published)); err != nil {
		return domain.NewProcessingError(domain.ErrDatabase, domain.AssetOriginal, err)
	}
	result.Assets = append(result.Assets, domain.ResultAsset{AssetType: domain.AssetOriginal, PublishedAsset: published})
	return nil
}

// publish upload one artifact and upsert its asset row
func (o *Orchestrator) publish(ctx context.Context, itemID string, assetType domain.AssetType, localPath, fileName, mimeType string, result *domain.Result) error {
	var published domain.PublishedAsset
	if err := o.step("upload_"+string(assetType), func() (e error) {
		published, e = o.steps.Publisher.Publish(ctx, localPath, itemID, fileName, mimeType)
		return e
	}); err != nil {
		return domain.NewProcessingError(domain.ErrUploadFailed, assetType, err)
	}

	if err := o.items.UpsertAsset(ctx, newAsset(itemID, assetType, mimeType, published)); err != nil {
		return domain.NewProcessingError(domain.ErrDatabase, assetType, err)
	}
	result.Assets = append(result.Assets, domain.ResultAsset{AssetType: assetType, PublishedAsset: published})
	return nil
}

// thumbnail 失敗不影響上線，只記 log 與 metric
func (o *Orchestrator) thumbnail(ctx context.Context, job domain.ProcessingJob, workDir, ogPath string, result *domain.Result) {
	if o.steps.Thumbnail == nil {
		return
	}

	out := filepath.Join(workDir, ThumbnailFile)
	var source string
	err := o.step("thumbnail", func() (e error) {
		source, e = o.steps.Thumbnail.Resolve(ctx, ThumbnailRequest{
			ThumbnailURL:     job.ThumbnailURL,
			SourceURL:        job.SourceURL,
			PreviewImagePath: ogPath,
			WorkDir:          workDir,
		}, out)
		return e
	})
	if err != nil {
		metrics.ThumbnailSource.WithLabelValues("none").Inc()
		logger.Log.Warn("thumbnail skipped", zap.String("item_id", job.ItemID), zap.Error(err))
		return
	}
	metrics.ThumbnailSource.WithLabelValues(source).Inc()

	if err := o.publish(ctx, job.ItemID, domain.AssetThumbnail, out, ThumbnailFile, "image/jpeg", result); err != nil {
		logger.Log.Warn("thumbnail publish skipped", zap.String("item_id", job.ItemID), zap.Error(err))
	}
}

// workDirFor job 專屬目錄，必須是 workRoot 底下的直接子目錄
func (o *Orchestrator) workDirFor(itemID string) (string, error) {
	if err := domain.ValidateItemID(itemID); err != nil {
		return "", err
	}
	dir := filepath.Join(o.workRoot, itemID)
	rel, err := filepath.Rel(o.workRoot, dir)
	if err != nil || rel == "." || rel == ".." || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidItemID, itemID)
	}
	return dir, nil
}

// markFailed 失敗紀錄本身的錯誤只寫 log，不覆蓋原始錯誤
func (o *Orchestrator) markFailed(ctx context.Context, itemID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
	defer cancel()

	if err := o.items.UpdateStatus(ctx, itemID, domain.ItemFailed); err != nil {
		logger.Log.Error("mark item failed", zap.String("item_id", itemID), zap.Error(err))
	}
	o.notify(ctx, domain.StatusEvent{
		ItemID: itemID,
		Status: domain.ItemFailed,
		Error:  cause.Error(),
		At:     o.now().UTC(),
	})
}

func (o *Orchestrator) notify(ctx context.Context, event domain.StatusEvent) {
	if err := o.events.PublishStatus(ctx, event); err != nil {
		logger.Log.Warn("publish status event", zap.String("item_id", event.ItemID), zap.Error(err))
	}
}

func (o *Orchestrator) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StepDuration.WithLabelValues(name, result).Observe(time.Since(start).Seconds())
	return err
}

func newAsset(itemID string, assetType domain.AssetType, mimeType string, p domain.PublishedAsset) *domain.Asset {
	return &domain.Asset{
		ItemID:     itemID,
		AssetType:  assetType,
		StorageKey: p.StorageKey,
		CDNURL:     p.CDNURL,
		MimeType:   mimeType,
		SizeBytes:  p.SizeBytes,
	}
}
