package repository

import (
	"context"
	"fmt"
	"time"

	"clip_service/internal/trending/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreRepo definition trending persistence
type ScoreRepo interface {
	ListLiveCandidates(ctx context.Context) ([]domain.Candidate, error)
	// ReplaceScores upsert every score and delete rows of items not in scores, in one transaction
	ReplaceScores(ctx context.Context, scores []domain.TrendingScore, computedAt time.Time) error
	ListScores(ctx context.Context, limit int) ([]domain.TrendingScore, error)
}

const (
	listLiveSQL = `
SELECT id, play_count, share_count, published_at
FROM items
WHERE status = 'live'
ORDER BY id`

	upsertScoresSQL = `
INSERT INTO trending_scores (item_id, score, rank, computed_at)
SELECT u.item_id, u.score, u.rank, $4
FROM unnest($1::text[], $2::float8[], $3::int4[]) AS u(item_id, score, rank)
ON CONFLICT (item_id) DO UPDATE
SET score = EXCLUDED.score,
    rank = EXCLUDED.rank,
    computed_at = EXCLUDED.computed_at`

	deleteStaleSQL = `
DELETE FROM trending_scores
WHERE NOT (item_id = ANY($1::text[]))`

	listScoresSQL = `
SELECT item_id, score, rank, computed_at
FROM trending_scores
ORDER BY rank
LIMIT $1`
)

type scoreRepo struct {
	pool *pgxpool.Pool
}

// NewScoreRepo create ScoreRepo
func NewScoreRepo(pool *pgxpool.Pool) ScoreRepo {
	return &scoreRepo{pool: pool}
}

func (r *scoreRepo) ListLiveCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.pool.Query(ctx, listLiveSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ItemID, &c.PlayCount, &c.ShareCount, &c.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceScores 同一個 transaction 內 upsert 再刪除不在 live 集合內的舊資料
func (r *scoreRepo) ReplaceScores(ctx context.Context, scores []domain.TrendingScore, computedAt time.Time) error {
	ids := make([]string, len(scores))
	values := make([]float64, len(scores))
	ranks := make([]int32, len(scores))
	for i, s := range scores {
		ids[i] = s.ItemID
		values[i] = s.Score
		ranks[i] = int32(s.Rank)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if len(scores) > 0 {
			if _, err := tx.Exec(ctx, upsertScoresSQL, ids, values, ranks, computedAt); err != nil {
				return fmt.Errorf("upsert scores: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, deleteStaleSQL, ids); err != nil {
			return fmt.Errorf("delete stale scores: %w", err)
		}
		return nil
	})
}

func (r *scoreRepo) ListScores(ctx context.Context, limit int) ([]domain.TrendingScore, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, listScoresSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TrendingScore
	for rows.Next() {
		var s domain.TrendingScore
		var rank int32
		if err := rows.Scan(&s.ItemID, &s.Score, &rank, &s.ComputedAt); err != nil {
			return nil, err
		}
		s.Rank = int(rank)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scoreRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
