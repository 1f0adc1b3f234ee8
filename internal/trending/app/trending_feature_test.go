package app

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"clip_service/internal/trending/domain"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Paths:    []string{"./features"}, // 指向 feature 檔相對路徑
			Format:   "pretty",
			Output:   os.Stdout,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}

// trendingWorld 每個 scenario 一份
type trendingWorld struct {
	repo   *memoryScoreRepo
	locker *memoryLocker
	result domain.Result
}

// InitializeScenario 註冊 Gherkin 與 Step Definition 的對應
func InitializeScenario(s *godog.ScenarioContext) {
	w := &trendingWorld{}

	s.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		w.repo = newMemoryScoreRepo()
		w.locker = newMemoryLocker()
		w.result = domain.Result{}
		return ctx, nil
	})

	s.Step(`^a live item "([^"]*)" with (\d+) plays and (\d+) shares published (\d+) days ago$`, w.aLiveItem)
	s.Step(`^a removed item "([^"]*)" with (\d+) plays and (\d+) shares$`, w.aRemovedItem)
	s.Step(`^a previous score exists for item "([^"]*)"$`, w.aPreviousScore)
	s.Step(`^another run holds the trending lock$`, w.lockHeld)
	s.Step(`^the trending engine runs$`, w.engineRuns)
	s.Step(`^the run succeeds with (\d+) items$`, w.runSucceeds)
	s.Step(`^the run is skipped$`, w.runSkipped)
	s.Step(`^item "([^"]*)" has score (\d+(?:\.\d+)?) and rank (\d+)$`, w.itemHasScore)
	s.Step(`^item "([^"]*)" has no score$`, w.itemHasNoScore)
	s.Step(`^every score shares one computed time$`, w.sharedComputedAt)
}

func (w *trendingWorld) aLiveItem(id string, plays, shares, days int) error {
	published := now.Add(-time.Duration(days) * 24 * time.Hour)
	w.repo.items = append(w.repo.items, memoryItem{
		Candidate: domain.Candidate{ItemID: id, PlayCount: int64(plays), ShareCount: int64(shares), PublishedAt: &published},
		Live:      true,
	})
	return nil
}

func (w *trendingWorld) aRemovedItem(id string, plays, shares int) error {
	w.repo.items = append(w.repo.items, memoryItem{
		Candidate: domain.Candidate{ItemID: id, PlayCount: int64(plays), ShareCount: int64(shares)},
	})
	return nil
}

func (w *trendingWorld) aPreviousScore(id string) error {
	w.repo.scores[id] = domain.TrendingScore{ItemID: id, Score: 1, Rank: 1, ComputedAt: now.Add(-time.Hour)}
	return nil
}

func (w *trendingWorld) lockHeld() error {
	_, err := w.locker.Acquire(context.Background(), domain.JobID, time.Minute)
	return err
}

func (w *trendingWorld) engineRuns() error {
	e := NewEngine(w.repo, nil, w.locker, time.Minute)
	e.now = func() time.Time { return now }
	w.result = e.Run(context.Background(), domain.TriggerManual)
	return nil
}

func (w *trendingWorld) runSucceeds(count int) error {
	if !w.result.Success {
		return fmt.Errorf("expected success, got %+v", w.result)
	}
	if w.result.ItemCount != count {
		return fmt.Errorf("expected %d items, got %d", count, w.result.ItemCount)
	}
	return nil
}

func (w *trendingWorld) runSkipped() error {
	if !w.result.Skipped || w.result.Success {
		return fmt.Errorf("expected skipped run, got %+v", w.result)
	}
	return nil
}

func (w *trendingWorld) itemHasScore(id string, score float64, rank int) error {
	s, ok := w.repo.scores[id]
	if !ok {
		return fmt.Errorf("item %s has no score", id)
	}
	if s.Score != score || s.Rank != rank {
		return fmt.Errorf("item %s: expected score %v rank %d, got score %v rank %d", id, score, rank, s.Score, s.Rank)
	}
	return nil
}

func (w *trendingWorld) itemHasNoScore(id string) error {
	if _, ok := w.repo.scores[id]; ok {
		return fmt.Errorf("item %s still has a score", id)
	}
	return nil
}

func (w *trendingWorld) sharedComputedAt() error {
	var first time.Time
	for _, s := range w.repo.scores {
		if first.IsZero() {
			first = s.ComputedAt
			continue
		}
		if !s.ComputedAt.Equal(first) {
			return fmt.Errorf("computed_at differs: %v vs %v", first, s.ComputedAt)
		}
	}
	return nil
}
