package repository_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/domain/repository"
)

func TestRedisDistributionRank(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })
	dist := repository.NewRedisScoreDistribution(rdb, "")

	below, total, err := dist.Rank(ctx, "python_core_v1", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, below)
	assert.Equal(t, 0, total)

	for id, score := range map[string]int{"a": 40, "b": 60, "c": 60, "d": 80} {
		require.NoError(t, dist.Add(ctx, "python_core_v1", id, score))
	}
	require.NoError(t, dist.Add(ctx, "python_core_v1", "a", 99), "a second add for a session is ignored")
	require.NoError(t, dist.Add(ctx, "sql_core_v1", "z", 10))

	tests := []struct {
		score int
		below int
	}{
		{score: 40, below: 0},
		{score: 41, below: 1},
		{score: 60, below: 1},
		{score: 80, below: 3},
		{score: 100, below: 4},
	}
	for _, tt := range tests {
		below, total, err := dist.Rank(ctx, "python_core_v1", tt.score)
		require.NoError(t, err)
		assert.Equal(t, tt.below, below, "score %d", tt.score)
		assert.Equal(t, 4, total)
	}

	score, err := rdb.ZScore(ctx, "score_distribution:python_core_v1", "a").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(40), score)
}
