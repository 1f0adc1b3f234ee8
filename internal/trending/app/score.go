package app

import (
	"math"
	"sort"
	"time"

	"clip_service/internal/trending/domain"
)

// Engagement plays × 1.0 + shares × 2.0
func Engagement(c domain.Candidate) float64 {
	return float64(c.PlayCount)*domain.PlayWeight + float64(c.ShareCount)*domain.ShareWeight
}

// Decay 1 / (1 + days × 0.1); 1.0 when never published.
// days is fractional and never negative.
func Decay(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return 1.0
	}
	days := now.Sub(*publishedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days*domain.DecayPerDay)
}

// Score engagement × decay rounded to 4 decimals
func Score(c domain.Candidate, now time.Time) float64 {
	return round4(Engagement(c) * Decay(c.PublishedAt, now))
}

// Rank score every candidate, sort descending (stable, input order breaks ties)
// and number them 1..N; every row carries computedAt
func Rank(candidates []domain.Candidate, now, computedAt time.Time) []domain.TrendingScore {
	scores := make([]domain.TrendingScore, len(candidates))
	for i, c := range candidates {
		scores[i] = domain.TrendingScore{
			ItemID:     c.ItemID,
			Score:      Score(c, now),
			ComputedAt: computedAt,
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
