package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"clip_service/internal/trending/domain"

	"github.com/stretchr/testify/mock"
)

// memoryScoreRepo 記憶體版 ScoreRepo，items 以 status 區分 live
type memoryScoreRepo struct {
	mu       sync.Mutex
	items    []memoryItem
	scores   map[string]domain.TrendingScore
	failList error
	failSave error
}

type memoryItem struct {
	domain.Candidate
	Live bool
}

func newMemoryScoreRepo() *memoryScoreRepo {
	return &memoryScoreRepo{scores: map[string]domain.TrendingScore{}}
}

func (r *memoryScoreRepo) ListLiveCandidates(context.Context) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	var out []domain.Candidate
	for _, it := range r.items {
		if it.Live {
			out = append(out, it.Candidate)
		}
	}
	return out, nil
}

func (r *memoryScoreRepo) ReplaceScores(_ context.Context, scores []domain.TrendingScore, computedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	keep := map[string]bool{}
	for _, s := range scores {
		s.ComputedAt = computedAt
		r.scores[s.ItemID] = s
		keep[s.ItemID] = true
	}
	for id := range r.scores {
		if !keep[id] {
			delete(r.scores, id)
		}
	}
	return nil
}

func (r *memoryScoreRepo) ListScores(_ context.Context, limit int) ([]domain.TrendingScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TrendingScore, 0, len(r.scores))
	for _, s := range r.scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryLocker 單一 process 內的 Locker
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// MockReportRepo 是 ReportRepo 的 Mock
type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Append(ctx context.Context, report domain.RunReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportRepo) Recent(ctx context.Context, limit int) ([]domain.RunReport, error) {
	args := m.Called(ctx, limit)
	reports, _ := args.Get(0).([]domain.RunReport)
	return reports, args.Error(1)
}

// MockRunner 是 Runner 的 Mock
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, trigger domain.Trigger) domain.Result {
	return m.Called(ctx, trigger).Get(0).(domain.Result)
}
