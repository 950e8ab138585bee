package persist

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RetiredPlayerRow is one leaderboard record.
type RetiredPlayerRow struct {
	Name     string
	Score    int
	PlayTime float64 // seconds
}

// RetireRepo stores and pages the retired-players leaderboard.
type RetireRepo struct {
	db *DB
}

func NewRetireRepo(db *DB) *RetireRepo {
	return &RetireRepo{db: db}
}

// RecordRetirement inserts one leaderboard record. The write is retried with
// fibonacci backoff; a record that still cannot land after the retries is an
// unrecoverable failure for the caller.
func (r *RetireRepo) RecordRetirement(ctx context.Context, name string, score int, playSeconds float64) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := r.db.Pool.Exec(ctx,
			`INSERT INTO retired_players (name, score, play_time) VALUES ($1, $2, $3)`,
			name, score, playSeconds,
		)
		if err != nil {
			r.db.log.Warn("insert retired player", zap.String("name", name), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
}

// QueryRetired returns one leaderboard page ordered by score descending,
// then play time ascending, then name.
func (r *RetireRepo) QueryRetired(ctx context.Context, start, maxItems int) ([]RetiredPlayerRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, score, play_time
		 FROM retired_players
		 ORDER BY score DESC, play_time, name
		 LIMIT $1 OFFSET $2`, maxItems, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []RetiredPlayerRow{}
	for rows.Next() {
		var rec RetiredPlayerRow
		if err := rows.Scan(&rec.Name, &rec.Score, &rec.PlayTime); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
