package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	ID string `json:"id"`
}

func TestPushPopIsFIFO(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })

	for _, id := range []string{"1", "2"} {
		require.NoError(t, Push(ctx, rdb, "q", message{ID: id}))
	}
	for _, want := range []string{"1", "2"} {
		var got message
		require.NoError(t, Pop(ctx, rdb, "q", time.Second, &got))
		assert.Equal(t, want, got.ID)
	}

	var none message
	assert.ErrorIs(t, Pop(ctx, rdb, "q", time.Second, &none), ErrEmpty)
}

func TestPopRejectsMalformedMessage(t *testing.T) {
	ctx := context.Background()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })

	_, err := m.Lpush("q", "{not json")
	require.NoError(t, err)
	var got message
	err = Pop(ctx, rdb, "q", time.Second, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
}
