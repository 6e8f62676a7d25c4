package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// putReport stores a finished report directly, bypassing a test session.
func putReport(t *testing.T, h *harness, candidateID, trackID string, overall int, subs map[model.Category]int) {
	t.Helper()
	if subs == nil {
		subs = map[model.Category]int{}
	}
	require.NoError(t, h.repos.Reports.Create(context.Background(), &model.ScoreReport{
		SessionID: candidateID + "-" + trackID, CandidateID: candidateID, TrackID: trackID,
		OverallScore: overall, Subscores: subs, Strengths: []string{}, Weaknesses: []string{},
		Flags: []model.ResponseFlag{}, CompletedAt: h.clock,
	}))
}

func seedCatalog(t *testing.T, h *harness) {
	t.Helper()
	require.NoError(t, h.bank.SeedIfEmpty(context.Background()))
}

func TestEligibleCandidatesThresholdAndConsent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedCatalog(t, h)
	emp := h.newEmployer(t, "TechCorp Inc")

	strong := h.newCandidate(t, "Alice", "alice@example.com")
	weak := h.newCandidate(t, "Bob", "bob@example.com")
	silent := h.newCandidate(t, "Carol", "carol@example.com")
	putReport(t, h, strong, "python_core_v1", 84, nil)
	putReport(t, h, weak, "python_core_v1", 60, nil)
	putReport(t, h, silent, "python_core_v1", 99, nil)

	for _, c := range []string{strong, weak} {
		_, err := h.consent.Grant(ctx, c, ShareRequest{EmployerID: emp})
		require.NoError(t, err)
	}

	job, err := h.employers.UpsertJob(ctx, emp, UpsertJobRequest{
		JobID: "job_001", RequiredTracks: []string{"python_core_v1"}, MinScores: map[string]int{"python_core_v1": 70},
	})
	require.NoError(t, err)

	res, err := h.matches.EligibleCandidates(ctx, emp, job.JobID)
	require.NoError(t, err)
	require.Len(t, res.EligibleCandidates, 1)
	got := res.EligibleCandidates[0]
	assert.Equal(t, strong, got.CandidateID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 100, got.MatchScore)
	assert.Equal(t, map[string]int{"python_core_v1": 84}, got.TrackScores)
	assert.Equal(t, "Scored 84 vs required 70 on python_core_v1", got.MatchExplanation)
}

func TestEligibleCandidatesMultiTrackAndSubscore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedCatalog(t, h)
	emp := h.newEmployer(t, "CodeFactory")

	a := h.newCandidate(t, "A", "a@example.com")
	b := h.newCandidate(t, "B", "b@example.com")
	c := h.newCandidate(t, "C", "c@example.com")
	putReport(t, h, a, "python_core_v1", 90, map[model.Category]int{model.CategoryAlgorithms: 80})
	putReport(t, h, a, "javascript_core_v1", 76, nil)
	putReport(t, h, b, "python_core_v1", 95, map[model.Category]int{model.CategoryAlgorithms: 90})
	putReport(t, h, b, "javascript_core_v1", 99, nil)
	putReport(t, h, c, "python_core_v1", 99, map[model.Category]int{model.CategoryDataStructures: 99})
	putReport(t, h, c, "javascript_core_v1", 99, nil)
	for _, id := range []string{a, b, c} {
		_, err := h.consent.Grant(ctx, id, ShareRequest{EmployerID: emp})
		require.NoError(t, err)
	}

	_, err := h.employers.UpsertJob(ctx, emp, UpsertJobRequest{
		JobID:          "job_003",
		RequiredTracks: []string{"javascript_core_v1", "python_core_v1"},
		MinScores:      map[string]int{"javascript_core_v1": 75, "python_core_v1": 75},
		Subscores:      map[string]model.Category{"python_core_v1": model.CategoryAlgorithms},
	})
	require.NoError(t, err)

	res, err := h.matches.EligibleCandidates(ctx, emp, "job_003")
	require.NoError(t, err)
	require.Len(t, res.EligibleCandidates, 2, "c has no algorithms subscore")
	assert.Equal(t, b, res.EligibleCandidates[0].CandidateID, "ties on matchScore break by total score")
	assert.Equal(t, a, res.EligibleCandidates[1].CandidateID)
	assert.Equal(t,
		"Scored 76 vs required 75 on javascript_core_v1; Scored 80 vs required 75 on python_core_v1 (algorithms)",
		res.EligibleCandidates[1].MatchExplanation)
}

func TestEligibleCandidatesOtherEmployersJob(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedCatalog(t, h)
	owner := h.newEmployer(t, "Owner")
	other := h.newEmployer(t, "Other")
	_, err := h.employers.UpsertJob(ctx, owner, UpsertJobRequest{
		JobID: "j", RequiredTracks: []string{"sql_core_v1"}, MinScores: map[string]int{"sql_core_v1": 65},
	})
	require.NoError(t, err)

	_, err = h.matches.EligibleCandidates(ctx, other, "j")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = h.employers.UpsertJob(ctx, other, UpsertJobRequest{
		JobID: "j", RequiredTracks: []string{"sql_core_v1"}, MinScores: map[string]int{"sql_core_v1": 10},
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRecommendedJobs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedCatalog(t, h)
	shared := h.newEmployer(t, "TechCorp Inc")
	unshared := h.newEmployer(t, "DataSystems LLC")
	cand := h.newCandidate(t, "Alice", "alice@example.com")
	putReport(t, h, cand, "python_core_v1", 85, nil)

	for _, emp := range []string{shared, unshared} {
		_, err := h.employers.UpsertJob(ctx, emp, UpsertJobRequest{
			JobID: "py-" + emp, RequiredTracks: []string{"python_core_v1"}, MinScores: map[string]int{"python_core_v1": 70},
		})
		require.NoError(t, err)
	}
	_, err := h.employers.UpsertJob(ctx, shared, UpsertJobRequest{
		JobID: "sql-job", RequiredTracks: []string{"sql_core_v1"}, MinScores: map[string]int{"sql_core_v1": 65},
	})
	require.NoError(t, err)
	_, err = h.consent.Grant(ctx, cand, ShareRequest{EmployerID: shared})
	require.NoError(t, err)

	res, err := h.matches.RecommendedJobs(ctx, cand)
	require.NoError(t, err)
	assert.Equal(t, []model.RoleMatch{{JobID: "py-" + shared, Company: "TechCorp Inc", MatchScore: 100}}, res.RecommendedJobs)
}

func TestMatchScore(t *testing.T) {
	assert.Equal(t, 100, MatchScore(84, 70))
	assert.Equal(t, 100, MatchScore(70, 70))
	assert.Equal(t, 100, MatchScore(0, 0))
	assert.Equal(t, 50, MatchScore(35, 70))
}
