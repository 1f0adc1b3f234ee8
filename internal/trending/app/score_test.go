package app

import (
	"testing"
	"time"

	"clip_service/internal/trending/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestEngagement(t *testing.T) {
	assert.Equal(t, 1200.0, Engagement(domain.Candidate{PlayCount: 1000, ShareCount: 100}))
	assert.Equal(t, 0.0, Engagement(domain.Candidate{}))
}

func TestDecay(t *testing.T) {
	assert.Equal(t, 1.0, Decay(nil, now))
	assert.Equal(t, 1.0, Decay(ago(0), now))
	assert.InDelta(t, 0.5, Decay(ago(10*24*time.Hour), now), 1e-12)
	assert.InDelta(t, 1/1.05, Decay(ago(12*time.Hour), now), 1e-12)

	future := now.Add(48 * time.Hour)
	assert.Equal(t, 1.0, Decay(&future, now))
}

func TestScore_RoundedToFourDecimals(t *testing.T) {
	// 1 / 1.3 = 0.769230769...
	s := Score(domain.Candidate{PlayCount: 1, PublishedAt: ago(3 * 24 * time.Hour)}, now)
	assert.Equal(t, 0.7692, s)
}

func TestScore_MatchesDecayedEngagement(t *testing.T) {
	tests := []struct {
		plays, shares int64
		days          float64
	}{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 1},
		{10, 3, 0.5},
		{100, 10, 2},
		{1000, 100, 7.25},
		{12345, 678, 30},
		{999999, 12345, 365},
	}

	for _, tt := range tests {
		published := now.Add(-time.Duration(tt.days * 24 * float64(time.Hour)))
		c := domain.Candidate{PlayCount: tt.plays, ShareCount: tt.shares, PublishedAt: &published}

		want := (float64(tt.plays) + 2*float64(tt.shares)) / (1 + 0.1*tt.days)
		assert.InDelta(t, want, Score(c, now), 1e-2, "P=%d S=%d D=%v", tt.plays, tt.shares, tt.days)

		unpublished := domain.Candidate{PlayCount: tt.plays, ShareCount: tt.shares}
		assert.InDelta(t, float64(tt.plays)+2*float64(tt.shares), Score(unpublished, now), 1e-2)
	}
}

func TestScore_ShareWorthTwoPlays(t *testing.T) {
	twoPlays := Score(domain.Candidate{PlayCount: 2}, now)
	oneShare := Score(domain.Candidate{ShareCount: 1}, now)
	assert.Equal(t, twoPlays, oneShare)
	assert.Equal(t, 2.0, oneShare)

	published := ago(4 * 24 * time.Hour)
	assert.Equal(t,
		Score(domain.Candidate{PlayCount: 2, PublishedAt: published}, now),
		Score(domain.Candidate{ShareCount: 1, PublishedAt: published}, now))
}

func TestRank_OrderAndComputedAt(t *testing.T) {
	computedAt := now.Add(time.Second)
	scores := Rank([]domain.Candidate{
		{ItemID: "C", PlayCount: 10, PublishedAt: ago(0)},
		{ItemID: "A", PlayCount: 1000, ShareCount: 100, PublishedAt: ago(0)},
		{ItemID: "B", PlayCount: 100, ShareCount: 10, PublishedAt: ago(0)},
	}, now, computedAt)

	require.Len(t, scores, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{scores[0].ItemID, scores[1].ItemID, scores[2].ItemID})
	assert.Equal(t, []float64{1200, 120, 10}, []float64{scores[0].Score, scores[1].Score, scores[2].Score})
	for i, s := range scores {
		assert.Equal(t, i+1, s.Rank)
		assert.Equal(t, computedAt, s.ComputedAt)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	scores := Rank([]domain.Candidate{
		{ItemID: "x", PlayCount: 5},
		{ItemID: "y", PlayCount: 7},
		{ItemID: "z", PlayCount: 5},
	}, now, now)

	assert.Equal(t, "y", scores[0].ItemID)
	assert.Equal(t, "x", scores[1].ItemID)
	assert.Equal(t, "z", scores[2].ItemID)
	assert.Equal(t, 3, scores[2].Rank)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, now, now))
}
