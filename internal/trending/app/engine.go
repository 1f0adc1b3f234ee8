package app

import (
	"context"
	"fmt"
	"time"

	"clip_service/internal/trending/domain"
	"clip_service/internal/trending/repository"
	"clip_service/pkg/database"
	"clip_service/pkg/logger"
	"clip_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner run the trending recompute once
type Runner interface {
	Run(ctx context.Context, trigger domain.Trigger) domain.Result
}

// Engine 重新計算所有 live item 的 trending 分數
type Engine struct {
	scores  repository.ScoreRepo
	reports repository.ReportRepo
	locker  database.Locker
	lockTTL time.Duration
	now     func() time.Time
}

// NewEngine create Engine, reports may be nil
func NewEngine(scores repository.ScoreRepo, reports repository.ReportRepo, locker database.Locker, lockTTL time.Duration) *Engine {
	if reports == nil {
		reports = repository.NewNopReportRepo()
	}
	return &Engine{
		scores:  scores,
		reports: reports,
		locker:  locker,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

// Run 不回傳 error，失敗寫在 Result 內，scheduler 不會因此中斷
func (e *Engine) Run(ctx context.Context, trigger domain.Trigger) domain.Result {
	start := e.now()
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: start.UTC(),
	}

	res := e.run(ctx, start)
	res.DurationMs = e.now().Sub(start).Milliseconds()

	report.Success = res.Success
	report.Skipped = res.Skipped
	report.ItemCount = res.ItemCount
	report.DurationMs = res.DurationMs
	report.Error = res.Error
	if err := e.reports.Append(context.WithoutCancel(ctx), report); err != nil {
		logger.Log.Warn("append trending report", zap.String("run_id", report.RunID), zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.String("trigger", string(trigger)),
		zap.Int("items", res.ItemCount),
		zap.Int64("duration_ms", res.DurationMs),
	}
	switch {
	case res.Skipped:
		metrics.TrendingRuns.WithLabelValues("skipped").Inc()
		logger.Log.Info("trending run skipped, another run holds the lock", fields...)
	case res.Success:
		metrics.TrendingRuns.WithLabelValues("success").Inc()
		metrics.TrendingItems.Set(float64(res.ItemCount))
		metrics.TrendingDuration.Observe(float64(res.DurationMs) / 1000)
		logger.Log.Info("trending run done", fields...)
	default:
		metrics.TrendingRuns.WithLabelValues("failed").Inc()
		logger.Log.Error("trending run failed", append(fields, zap.String("error", res.Error))...)
	}
	return res
}

func (e *Engine) run(ctx context.Context, start time.Time) domain.Result {
	acquired, err := e.locker.Acquire(ctx, domain.JobID, e.lockTTL)
	if err != nil {
		return domain.Result{Error: err.Error()}
	}
	if !acquired {
		return domain.Result{Skipped: true}
	}
	defer func() {
		if err := e.locker.Release(context.WithoutCancel(ctx), domain.JobID); err != nil {
			logger.Log.Warn("release trending lock", zap.Error(err))
		}
	}()

	candidates, err := e.scores.ListLiveCandidates(ctx)
	if err != nil {
		return domain.Result{Error: fmt.Sprintf("list live items: %v", err)}
	}

	// computedAt 只產生一次，所有 row 共用
	computedAt := e.now().UTC()
	scores := Rank(candidates, start, computedAt)

	if err := e.scores.ReplaceScores(ctx, scores, computedAt); err != nil {
		return domain.Result{Error: fmt.Sprintf("write scores: %v", err)}
	}
	return domain.Result{Success: true, ItemCount: len(scores)}
}
