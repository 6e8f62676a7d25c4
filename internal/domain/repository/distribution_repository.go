package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ScoreDistribution is the per-track reference population used for
// percentiles. Add is idempotent per session.
type ScoreDistribution interface {
	// Rank returns how many recorded scores are strictly below score, and the
	// population size.
	Rank(ctx context.Context, trackID string, score int) (below, total int, err error)
	Add(ctx context.Context, trackID, sessionID string, score int) error
}

type sqlScoreDistribution struct {
	db *sql.DB
}

func NewSQLScoreDistribution(db *sql.DB) ScoreDistribution {
	return &sqlScoreDistribution{db: db}
}

func (d *sqlScoreDistribution) Rank(ctx context.Context, trackID string, score int) (int, int, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN score < $1 THEN 1 ELSE 0 END), 0), COUNT(*)
	          FROM score_distribution WHERE track_id = $2`
	var below, total int64
	if err := d.db.QueryRowContext(ctx, query, score, trackID).Scan(&below, &total); err != nil {
		return 0, 0, fmt.Errorf("sqlScoreDistribution.Rank: %w", err)
	}
	return int(below), int(total), nil
}

func (d *sqlScoreDistribution) Add(ctx context.Context, trackID, sessionID string, score int) error {
	query := `INSERT INTO score_distribution (track_id, session_id, score) VALUES ($1, $2, $3)
	          ON CONFLICT (track_id, session_id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, query, trackID, sessionID, score); err != nil {
		return fmt.Errorf("sqlScoreDistribution.Add: %w", err)
	}
	return nil
}

// redisScoreDistribution keeps one sorted set per track, member = session id.
type redisScoreDistribution struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisScoreDistribution(rdb *redis.Client, prefix string) ScoreDistribution {
	if prefix == "" {
		prefix = "score_distribution:"
	}
	return &redisScoreDistribution{rdb: rdb, prefix: prefix}
}

func (d *redisScoreDistribution) Rank(ctx context.Context, trackID string, score int) (int, int, error) {
	key := d.prefix + trackID
	pipe := d.rdb.Pipeline()
	belowCmd := pipe.ZCount(ctx, key, "-inf", "("+strconv.Itoa(score))
	totalCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redisScoreDistribution.Rank: %w", err)
	}
	return int(belowCmd.Val()), int(totalCmd.Val()), nil
}

func (d *redisScoreDistribution) Add(ctx context.Context, trackID, sessionID string, score int) error {
	err := d.rdb.ZAddNX(ctx, d.prefix+trackID, redis.Z{Score: float64(score), Member: sessionID}).Err()
	if err != nil {
		return fmt.Errorf("redisScoreDistribution.Add: %w", err)
	}
	return nil
}
