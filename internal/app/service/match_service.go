package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

// MatchService answers eligibility queries. Candidates without a consent
// grant are never read, so an employer cannot learn they exist.
type MatchService struct {
	jobRepo       repository.JobRepository
	employerRepo  repository.EmployerRepository
	candidateRepo repository.CandidateRepository
	reportRepo    repository.ReportRepository
	consent       *ConsentService
	consentRepo   repository.ConsentRepository
	trace         *TraceService
}

func NewMatchService(
	jobRepo repository.JobRepository,
	employerRepo repository.EmployerRepository,
	candidateRepo repository.CandidateRepository,
	reportRepo repository.ReportRepository,
	consentRepo repository.ConsentRepository,
	consent *ConsentService,
	trace *TraceService,
) *MatchService {
	return &MatchService{
		jobRepo:       jobRepo,
		employerRepo:  employerRepo,
		candidateRepo: candidateRepo,
		reportRepo:    reportRepo,
		consentRepo:   consentRepo,
		consent:       consent,
		trace:         trace,
	}
}

type EligibleResponse struct {
	JobID              string                    `json:"jobId"`
	EligibleCandidates []model.EligibleCandidate `json:"eligibleCandidates"`
}

type RecommendationsResponse struct {
	CandidateID     string            `json:"candidateId"`
	RecommendedJobs []model.RoleMatch `json:"recommendedJobs"`
}

// MatchScore is 100*min(1, score/threshold); a zero threshold is always met
// in full.
func MatchScore(score, threshold int) int {
	if threshold <= 0 || score >= threshold {
		return 100
	}
	if score <= 0 {
		return 0
	}
	return 100 * score / threshold
}

type trackMatch struct {
	scores      map[string]int
	matchScore  int
	totalScore  int
	explanation string
}

// evaluate checks one consented candidate against a job. ok is false when any
// required track is missing or below threshold.
func (s *MatchService) evaluate(ctx context.Context, job *model.JobRequirement, candidateID string) (*trackMatch, bool, error) {
	m := &trackMatch{scores: map[string]int{}}
	parts := make([]string, 0, len(job.RequiredTracks))
	sum := 0

	for _, trackID := range job.RequiredTracks {
		report, err := s.reportRepo.Latest(ctx, candidateID, trackID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}

		category := job.Subscores[trackID]
		score, ok := report.Score(category)
		if !ok {
			return nil, false, nil
		}
		threshold := job.MinScores[trackID]
		if score < threshold {
			return nil, false, nil
		}

		m.scores[trackID] = score
		m.totalScore += score
		sum += MatchScore(score, threshold)

		label := trackID
		if category != "" {
			label += " (" + string(category) + ")"
		}
		parts = append(parts, "Scored "+strconv.Itoa(score)+" vs required "+strconv.Itoa(threshold)+" on "+label)
	}

	if len(job.RequiredTracks) > 0 {
		m.matchScore = sum / len(job.RequiredTracks)
	}
	m.explanation = strings.Join(parts, "; ")
	return m, true, nil
}

func (s *MatchService) EligibleCandidates(ctx context.Context, employerID, jobID string) (*EligibleResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employerID {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}

	grants, err := s.consentRepo.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent grants: %w", err)
	}

	type ranked struct {
		model.EligibleCandidate
		total int
	}
	results := []ranked{}
	for _, g := range grants {
		granted, err := s.consent.HasGrant(ctx, g.CandidateID, employerID)
		if err != nil {
			return nil, err
		}
		if !granted {
			continue
		}
		m, ok, err := s.evaluate(ctx, job, g.CandidateID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		candidate, err := s.candidateRepo.FindByID(ctx, g.CandidateID)
		if err != nil {
			return nil, err
		}
		results = append(results, ranked{
			EligibleCandidate: model.EligibleCandidate{
				CandidateID:      candidate.ID,
				Name:             candidate.Name,
				TrackScores:      m.scores,
				MatchScore:       m.matchScore,
				MatchExplanation: m.explanation,
			},
			total: m.totalScore,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.total != b.total {
			return a.total > b.total
		}
		return a.CandidateID < b.CandidateID
	})

	resp := &EligibleResponse{JobID: jobID, EligibleCandidates: make([]model.EligibleCandidate, 0, len(results))}
	for _, r := range results {
		resp.EligibleCandidates = append(resp.EligibleCandidates, r.EligibleCandidate)
	}
	s.trace.Record(ctx, model.EventJobFilterRun, employerID, map[string]string{
		"jobId":    jobID,
		"eligible": strconv.Itoa(len(resp.EligibleCandidates)),
	})
	return resp, nil
}

// RecommendedJobs lists the jobs of employers the candidate shared with that
// the candidate currently qualifies for.
func (s *MatchService) RecommendedJobs(ctx context.Context, candidateID string) (*RecommendationsResponse, error) {
	if _, err := s.candidateRepo.FindByID(ctx, candidateID); err != nil {
		return nil, err
	}
	grants, err := s.consentRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent grants: %w", err)
	}
	employerIDs := make([]string, 0, len(grants))
	for _, g := range grants {
		employerIDs = append(employerIDs, g.EmployerID)
	}
	jobs, err := s.jobRepo.ListByEmployers(ctx, employerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	companies := map[string]string{}
	resp := &RecommendationsResponse{CandidateID: candidateID, RecommendedJobs: []model.RoleMatch{}}
	for i := range jobs {
		job := &jobs[i]
		m, ok, err := s.evaluate(ctx, job, candidateID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		company, seen := companies[job.EmployerID]
		if !seen {
			employer, err := s.employerRepo.FindByID(ctx, job.EmployerID)
			if err != nil {
				return nil, err
			}
			company = employer.Name
			companies[job.EmployerID] = company
		}
		resp.RecommendedJobs = append(resp.RecommendedJobs, model.RoleMatch{
			JobID:      job.ID,
			Company:    company,
			MatchScore: m.matchScore,
		})
	}

	sort.SliceStable(resp.RecommendedJobs, func(i, j int) bool {
		a, b := resp.RecommendedJobs[i], resp.RecommendedJobs[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		return a.JobID < b.JobID
	})
	return resp, nil
}
