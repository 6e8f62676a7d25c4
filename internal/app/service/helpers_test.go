package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/app/scoring"
	"vgp_platform/internal/common/security"
	"vgp_platform/internal/domain/repository/memory"
	"vgp_platform/internal/platform/lock"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	security.InitJWT([]byte("test-secret"), time.Hour)
	os.Exit(m.Run())
}

// harness wires every service over one set of in-memory repositories and a
// shared, movable clock.
type harness struct {
	repos      *memory.Repositories
	clock      time.Time
	trace      *TraceService
	candidates *CandidateService
	employers  *EmployerService
	consent    *ConsentService
	matches    *MatchService
	bank       *QuestionBankService
	sessions   *SessionService
}

func (h *harness) now() time.Time { return h.clock }

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{repos: memory.New(), clock: t0}

	h.trace = NewTraceService(h.repos.Traces, nil, "")
	h.trace.now = h.now
	h.candidates = NewCandidateService(h.repos.Candidates, h.repos.Consents, h.trace)
	h.candidates.now = h.now
	h.employers = NewEmployerService(h.repos.Employers, h.repos.Jobs, h.repos.Tracks, h.trace)
	h.employers.now = h.now
	h.consent = NewConsentService(h.repos.Consents, h.repos.Candidates, h.repos.Employers, h.trace)
	h.consent.now = h.now
	h.matches = NewMatchService(h.repos.Jobs, h.repos.Employers, h.repos.Candidates, h.repos.Reports, h.repos.Consents, h.consent, h.trace)
	h.bank = NewQuestionBankService(h.repos.Tracks, bank.Defaults{QuestionBudget: 10, DurationSeconds: 1800}, h.trace)
	h.bank.now = h.now
	h.sessions = NewSessionService(SessionStores{
		Sessions:     h.repos.Sessions,
		Responses:    h.repos.Responses,
		Reports:      h.repos.Reports,
		Tracks:       h.repos.Tracks,
		Candidates:   h.repos.Candidates,
		Distribution: h.repos.Distribution,
	}, SessionConfig{Scoring: scoring.DefaultConfig()}, lock.NewKeyedMutex(), h.trace)
	h.sessions.now = h.now
	return h
}

// seedSmallTrack imports track t1: budget three, four questions.
func (h *harness) seedSmallTrack(t *testing.T) {
	t.Helper()
	doc := &bank.Document{
		Tracks: []bank.TrackSpec{{ID: "t1", Name: "Tiny", QuestionBudget: 3, DurationSeconds: 1800}},
		Questions: []bank.QuestionSpec{
			{ID: "m1", TrackID: "t1", Type: "mcq", Difficulty: "medium", Topic: "a", Subskill: "algorithms", Prompt: "m1", Options: []string{"x", "y"}, Answer: "x"},
			{ID: "m2", TrackID: "t1", Type: "mcq", Difficulty: "medium", Topic: "b", Subskill: "algorithms", Prompt: "m2", Options: []string{"x", "y"}, Answer: "x"},
			{ID: "h1", TrackID: "t1", Type: "mcq", Difficulty: "hard", Topic: "a", Subskill: "data_structures", Prompt: "h1", Options: []string{"x", "y"}, Answer: "x"},
			{ID: "e1", TrackID: "t1", Type: "coding", Difficulty: "easy", Topic: "c", Subskill: "code_quality", Prompt: "e1"},
		},
	}
	_, err := h.bank.Import(context.Background(), doc)
	require.NoError(t, err)
}

func (h *harness) newCandidate(t *testing.T, name, email string) string {
	t.Helper()
	resp, err := h.candidates.Create(context.Background(), CreateCandidateRequest{Name: name, Email: email})
	require.NoError(t, err)
	return resp.CandidateID
}

func (h *harness) newEmployer(t *testing.T, name string) string {
	t.Helper()
	resp, err := h.employers.Create(context.Background(), CreateEmployerRequest{Name: name})
	require.NoError(t, err)
	return resp.EmployerID
}
