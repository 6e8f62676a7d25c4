package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/domain/model"
)

func TestLatestReportUsesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"zzzz", "aaaa"} {
		require.NoError(t, repo.Create(ctx, &model.ScoreReport{
			SessionID: id, CandidateID: "c1", TrackID: "t1", OverallScore: 100 - 100*i, CompletedAt: at,
		}))
	}

	latest, err := repo.Latest(ctx, "c1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "aaaa", latest.SessionID)
	assert.Equal(t, 0, latest.OverallScore)
}
