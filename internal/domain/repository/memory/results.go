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

type reportRepository struct {
	mu        sync.RWMutex
	bySession map[string]model.ScoreReport
	seq       map[string]int
	next      int
}

func NewReportRepository() repository.ReportRepository {
	return &reportRepository{bySession: map[string]model.ScoreReport{}, seq: map[string]int{}}
}

func copyReport(rep model.ScoreReport) model.ScoreReport {
	subs := make(map[model.Category]int, len(rep.Subscores))
	for k, v := range rep.Subscores {
		subs[k] = v
	}
	rep.Subscores = subs
	rep.Strengths = append([]string{}, rep.Strengths...)
	rep.Weaknesses = append([]string{}, rep.Weaknesses...)
	rep.Flags = append([]model.ResponseFlag{}, rep.Flags...)
	return rep
}

func (r *reportRepository) Create(_ context.Context, rep *model.ScoreReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySession[rep.SessionID]; ok {
		return fmt.Errorf("report for session %s: %w", rep.SessionID, common.ErrConflict)
	}
	r.bySession[rep.SessionID] = copyReport(*rep)
	r.next++
	r.seq[rep.SessionID] = r.next
	return nil
}

func (r *reportRepository) FindBySession(_ context.Context, sessionID string) (*model.ScoreReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.bySession[sessionID]
	if !ok {
		return nil, fmt.Errorf("report for session %s: %w", sessionID, common.ErrNotFound)
	}
	cp := copyReport(rep)
	return &cp, nil
}

func (r *reportRepository) Latest(_ context.Context, candidateID, trackID string) (*model.ScoreReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *model.ScoreReport
	for _, rep := range r.bySession {
		if rep.CandidateID != candidateID || rep.TrackID != trackID {
			continue
		}
		if best == nil || r.seq[rep.SessionID] > r.seq[best.SessionID] {
			cp := rep
			best = &cp
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no report for %s on %s: %w", candidateID, trackID, common.ErrNotFound)
	}
	cp := copyReport(*best)
	return &cp, nil
}

type scoreDistribution struct {
	mu      sync.RWMutex
	byTrack map[string]map[string]int
}

func NewScoreDistribution() repository.ScoreDistribution {
	return &scoreDistribution{byTrack: map[string]map[string]int{}}
}

func (d *scoreDistribution) Rank(_ context.Context, trackID string, score int) (int, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	below := 0
	for _, s := range d.byTrack[trackID] {
		if s < score {
			below++
		}
	}
	return below, len(d.byTrack[trackID]), nil
}

func (d *scoreDistribution) Add(_ context.Context, trackID, sessionID string, score int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	scores, ok := d.byTrack[trackID]
	if !ok {
		scores = map[string]int{}
		d.byTrack[trackID] = scores
	}
	if _, seen := scores[sessionID]; !seen {
		scores[sessionID] = score
	}
	return nil
}

type jobRepository struct {
	mu   sync.RWMutex
	byID map[string]model.JobRequirement
}

func NewJobRepository() repository.JobRepository {
	return &jobRepository{byID: map[string]model.JobRequirement{}}
}

func copyJob(j model.JobRequirement) model.JobRequirement {
	j.RequiredTracks = append([]string{}, j.RequiredTracks...)
	mins := make(map[string]int, len(j.MinScores))
	for k, v := range j.MinScores {
		mins[k] = v
	}
	j.MinScores = mins
	if j.Subscores != nil {
		subs := make(map[string]model.Category, len(j.Subscores))
		for k, v := range j.Subscores {
			subs[k] = v
		}
		j.Subscores = subs
	}
	return j
}

func (r *jobRepository) Upsert(_ context.Context, j *model.JobRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[j.ID]; ok {
		if old.EmployerID != j.EmployerID {
			return fmt.Errorf("job %s belongs to another employer: %w", j.ID, common.ErrConflict)
		}
		j.CreatedAt = old.CreatedAt
	}
	r.byID[j.ID] = copyJob(*j)
	return nil
}

func (r *jobRepository) FindByID(_ context.Context, id string) (*model.JobRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	cp := copyJob(j)
	return &cp, nil
}

func (r *jobRepository) ListByEmployers(_ context.Context, employerIDs []string) ([]model.JobRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(employerIDs))
	for _, id := range employerIDs {
		wanted[id] = true
	}
	out := []model.JobRequirement{}
	for _, j := range r.byID {
		if wanted[j.EmployerID] {
			out = append(out, copyJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

type consentRepository struct {
	mu     sync.RWMutex
	grants map[[2]string]model.ConsentGrant
}

func NewConsentRepository() repository.ConsentRepository {
	return &consentRepository{grants: map[[2]string]model.ConsentGrant{}}
}

func (r *consentRepository) Grant(_ context.Context, g *model.ConsentGrant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{g.CandidateID, g.EmployerID}
	if _, ok := r.grants[key]; ok {
		return false, nil
	}
	r.grants[key] = *g
	return true, nil
}

func (r *consentRepository) Has(_ context.Context, candidateID, employerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[[2]string{candidateID, employerID}]
	return ok, nil
}

func (r *consentRepository) ListByCandidate(_ context.Context, candidateID string) ([]model.ConsentGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.ConsentGrant{}
	for _, g := range r.grants {
		if g.CandidateID == candidateID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GrantedAt.Equal(out[j].GrantedAt) {
			return out[i].GrantedAt.Before(out[j].GrantedAt)
		}
		return out[i].EmployerID < out[j].EmployerID
	})
	return out, nil
}

func (r *consentRepository) ListByEmployer(_ context.Context, employerID string) ([]model.ConsentGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.ConsentGrant{}
	for _, g := range r.grants {
		if g.EmployerID == employerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID < out[j].CandidateID })
	return out, nil
}

type traceRepository struct {
	mu     sync.RWMutex
	events []model.TraceEvent
}

func NewTraceRepository() repository.TraceRepository {
	return &traceRepository{}
}

func (r *traceRepository) Append(_ context.Context, e *model.TraceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.events {
		if existing.ID == e.ID {
			return nil
		}
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *traceRepository) Latest(_ context.Context, limit int) ([]model.TraceEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.TraceEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
