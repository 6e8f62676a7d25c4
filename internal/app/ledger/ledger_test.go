package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/app/ledger"
	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository/memory"
)

func TestAppendAssignsSequenceAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResponseRepository()

	l, err := ledger.Load(ctx, store, "s1")
	require.NoError(t, err)
	_, ok := l.Last()
	assert.False(t, ok)

	first, err := l.Append(ctx, model.Response{QuestionID: "q1", Answer: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "s1", first.SessionID)

	_, err = l.Append(ctx, model.Response{QuestionID: "q1", Answer: "b"})
	assert.ErrorIs(t, err, common.ErrDuplicateResponse)

	second, err := l.Append(ctx, model.Response{QuestionID: "q2"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)

	reloaded, err := ledger.Load(ctx, store, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	last, _ := reloaded.Last()
	assert.Equal(t, "q2", last.QuestionID)
	assert.Equal(t, "a", reloaded.Entries()[0].Answer, "first answer stands")
}

func TestStoreLevelDuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResponseRepository()

	stale, err := ledger.Load(ctx, store, "s1")
	require.NoError(t, err)
	fresh, err := ledger.Load(ctx, store, "s1")
	require.NoError(t, err)

	_, err = fresh.Append(ctx, model.Response{QuestionID: "q1"})
	require.NoError(t, err)
	_, err = stale.Append(ctx, model.Response{QuestionID: "q1"})
	assert.ErrorIs(t, err, common.ErrDuplicateResponse)
}

func TestPending(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.Load(ctx, memory.NewResponseRepository(), "s1")
	require.NoError(t, err)
	_, err = l.Append(ctx, model.Response{QuestionID: "q1"})
	require.NoError(t, err)

	id, ok := l.Pending([]string{"q1", "q2"})
	assert.True(t, ok)
	assert.Equal(t, "q2", id)

	_, ok = l.Pending([]string{"q1"})
	assert.False(t, ok)
}
