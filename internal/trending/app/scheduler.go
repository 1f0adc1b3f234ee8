package app

import (
	"context"
	"fmt"

	"clip_service/internal/trending/domain"
	"clip_service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule every 15 minutes
const DefaultSchedule = "@every 15m"

// Scheduler 依 cron 表達式定期觸發 Runner
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	ctx    context.Context
}

// NewScheduler create Scheduler, spec is a cron expression or descriptor ("@every 15m")
func NewScheduler(ctx context.Context, spec string, runner Runner) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		runner: runner,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	res := s.runner.Run(s.ctx, domain.TriggerSchedule)
	logger.Log.Debug("scheduled trending run", zap.Bool("success", res.Success), zap.Bool("skipped", res.Skipped))
}

// Start run the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stop scheduling, the returned context is done once a running tick finishes
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries number of scheduled entries
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
