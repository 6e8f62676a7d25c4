// Package memory holds map-backed repositories for tests and for running the
// API without a database (DB_DRIVER=memory). Values are copied on the way in
// and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

// Repositories is the in-memory set of stores.
type Repositories = repository.Set

func New() *Repositories {
	return &Repositories{
		Candidates:   NewCandidateRepository(),
		Employers:    NewEmployerRepository(),
		Tracks:       NewTrackRepository(),
		Sessions:     NewSessionRepository(),
		Responses:    NewResponseRepository(),
		Reports:      NewReportRepository(),
		Distribution: NewScoreDistribution(),
		Jobs:         NewJobRepository(),
		Consents:     NewConsentRepository(),
		Traces:       NewTraceRepository(),
	}
}

type candidateRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.Candidate
	byEmail map[string]string
}

func NewCandidateRepository() repository.CandidateRepository {
	return &candidateRepository{byID: map[string]model.Candidate{}, byEmail: map[string]string{}}
}

func (r *candidateRepository) Create(_ context.Context, c *model.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("candidate %s already exists: %w", c.ID, common.ErrConflict)
	}
	if _, ok := r.byEmail[c.Email]; ok {
		return fmt.Errorf("candidate with this email already exists: %w", common.ErrConflict)
	}
	r.byID[c.ID] = *c
	r.byEmail[c.Email] = c.ID
	return nil
}

func (r *candidateRepository) FindByID(_ context.Context, id string) (*model.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
	}
	return &c, nil
}

type employerRepository struct {
	mu   sync.RWMutex
	byID map[string]model.Employer
}

func NewEmployerRepository() repository.EmployerRepository {
	return &employerRepository{byID: map[string]model.Employer{}}
}

func (r *employerRepository) Create(_ context.Context, e *model.Employer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; ok {
		return fmt.Errorf("employer already exists: %w", common.ErrConflict)
	}
	r.byID[e.ID] = *e
	return nil
}

func (r *employerRepository) FindByID(_ context.Context, id string) (*model.Employer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("employer %s: %w", id, common.ErrNotFound)
	}
	return &e, nil
}

type trackRepository struct {
	mu        sync.RWMutex
	tracks    map[string]model.Track
	questions map[string]model.Question
}

func NewTrackRepository() repository.TrackRepository {
	return &trackRepository{tracks: map[string]model.Track{}, questions: map[string]model.Question{}}
}

func (r *trackRepository) UpsertTrack(_ context.Context, t *model.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.tracks[t.ID]; ok {
		t.CreatedAt = old.CreatedAt
	}
	r.tracks[t.ID] = *t
	return nil
}

func (r *trackRepository) FindTrackByID(_ context.Context, id string) (*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track %s: %w", id, common.ErrNotFound)
	}
	return &t, nil
}

func (r *trackRepository) ListTracks(_ context.Context) ([]model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *trackRepository) UpsertQuestion(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	cp.Options = append([]string(nil), q.Options...)
	r.questions[q.ID] = cp
	return nil
}

func (r *trackRepository) FindQuestionByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
	}
	return &q, nil
}

func (r *trackRepository) ListQuestions(_ context.Context, trackID string) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Question{}
	for _, q := range r.questions {
		if q.TrackID == trackID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type sessionRepository struct {
	mu   sync.RWMutex
	byID map[string]model.Session
}

func NewSessionRepository() repository.SessionRepository {
	return &sessionRepository{byID: map[string]model.Session{}}
}

func copySession(s model.Session) model.Session {
	s.ServedQuestionIDs = append([]string{}, s.ServedQuestionIDs...)
	topics := make(map[string]int, len(s.TopicLastServed))
	for k, v := range s.TopicLastServed {
		topics[k] = v
	}
	s.TopicLastServed = topics
	if s.FirstQuestionAt != nil {
		t := *s.FirstQuestionAt
		s.FirstQuestionAt = &t
	}
	if s.FinalizedAt != nil {
		t := *s.FinalizedAt
		s.FinalizedAt = &t
	}
	return s
}

func (r *sessionRepository) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return fmt.Errorf("session %s already exists: %w", s.ID, common.ErrConflict)
	}
	r.byID[s.ID] = copySession(*s)
	return nil
}

func (r *sessionRepository) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	cp := copySession(s)
	return &cp, nil
}

func (r *sessionRepository) Update(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; !ok {
		return fmt.Errorf("session %s: %w", s.ID, common.ErrNotFound)
	}
	r.byID[s.ID] = copySession(*s)
	return nil
}

func (r *sessionRepository) ListOpen(_ context.Context, candidateID, trackID string) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Session{}
	for _, s := range r.byID {
		if s.CandidateID == candidateID && s.TrackID == trackID && !s.State.Terminal() {
			out = append(out, copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type responseRepository struct {
	mu        sync.RWMutex
	bySession map[string][]model.Response
}

func NewResponseRepository() repository.ResponseRepository {
	return &responseRepository{bySession: map[string][]model.Response{}}
}

func (r *responseRepository) Append(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bySession[resp.SessionID] {
		if existing.QuestionID == resp.QuestionID {
			return fmt.Errorf("question %s: %w", resp.QuestionID, common.ErrDuplicateResponse)
		}
	}
	r.bySession[resp.SessionID] = append(r.bySession[resp.SessionID], *resp)
	return nil
}

func (r *responseRepository) ListBySession(_ context.Context, sessionID string) ([]model.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Response{}, r.bySession[sessionID]...), nil
}
