package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

type EmployerService struct {
	employerRepo repository.EmployerRepository
	jobRepo      repository.JobRepository
	trackRepo    repository.TrackRepository
	trace        *TraceService
	now          func() time.Time
}

func NewEmployerService(
	employerRepo repository.EmployerRepository,
	jobRepo repository.JobRepository,
	trackRepo repository.TrackRepository,
	trace *TraceService,
) *EmployerService {
	return &EmployerService{
		employerRepo: employerRepo,
		jobRepo:      jobRepo,
		trackRepo:    trackRepo,
		trace:        trace,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreateEmployerRequest struct {
	Name string `json:"name"`
}

func (s *EmployerService) Create(ctx context.Context, req CreateEmployerRequest) (*IdentityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", common.ErrValidation)
	}
	employer := &model.Employer{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: s.now().Truncate(time.Second),
	}
	if err := s.employerRepo.Create(ctx, employer); err != nil {
		return nil, fmt.Errorf("failed to create employer: %w", err)
	}

	token, err := security.GenerateToken(employer.ID, security.RoleEmployer)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.trace.Record(ctx, model.EventEmployerCreated, employer.ID, map[string]string{"slug": employer.Slug})
	return &IdentityResponse{EmployerID: employer.ID, Token: token}, nil
}

type UpsertJobRequest struct {
	JobID          string                    `json:"jobId"`
	EmployerID     string                    `json:"employerId"`
	Title          string                    `json:"title"`
	RequiredTracks []string                  `json:"requiredTracks"`
	MinScores      map[string]int            `json:"minScores"`
	Subscores      map[string]model.Category `json:"subscores"`
}

type JobResponse struct {
	JobID string `json:"jobId"`
}

// UpsertJob creates a job requirement or replaces the requirements of an
// existing job owned by the same employer.
func (s *EmployerService) UpsertJob(ctx context.Context, employerID string, req UpsertJobRequest) (*JobResponse, error) {
	if req.EmployerID != "" && req.EmployerID != employerID {
		return nil, fmt.Errorf("employerId does not match the path: %w", common.ErrValidation)
	}
	if _, err := s.employerRepo.FindByID(ctx, employerID); err != nil {
		return nil, err
	}
	if err := s.validateJob(ctx, &req); err != nil {
		return nil, err
	}

	job := &model.JobRequirement{
		ID:             strings.TrimSpace(req.JobID),
		EmployerID:     employerID,
		Title:          req.Title,
		RequiredTracks: req.RequiredTracks,
		MinScores:      req.MinScores,
		Subscores:      req.Subscores,
		CreatedAt:      s.now().Truncate(time.Second),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	s.trace.Record(ctx, model.EventJobUpserted, employerID, map[string]string{
		"jobId":  job.ID,
		"tracks": strings.Join(job.RequiredTracks, ","),
	})
	return &JobResponse{JobID: job.ID}, nil
}

func (s *EmployerService) validateJob(ctx context.Context, req *UpsertJobRequest) error {
	if len(req.RequiredTracks) == 0 {
		return fmt.Errorf("requiredTracks must name at least one track: %w", common.ErrValidation)
	}
	if req.MinScores == nil {
		req.MinScores = map[string]int{}
	}

	seen := map[string]bool{}
	for _, trackID := range req.RequiredTracks {
		if seen[trackID] {
			return fmt.Errorf("track %s listed twice: %w", trackID, common.ErrValidation)
		}
		seen[trackID] = true
		if _, err := s.trackRepo.FindTrackByID(ctx, trackID); err != nil {
			return fmt.Errorf("unknown track %s: %w", trackID, common.ErrValidation)
		}
		threshold, ok := req.MinScores[trackID]
		if !ok {
			return fmt.Errorf("minScores is missing %s: %w", trackID, common.ErrValidation)
		}
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("minScores[%s]=%d is outside 0-100: %w", trackID, threshold, common.ErrValidation)
		}
	}
	for trackID := range req.MinScores {
		if !seen[trackID] {
			return fmt.Errorf("minScores names %s which is not required: %w", trackID, common.ErrValidation)
		}
	}
	for trackID, category := range req.Subscores {
		if !seen[trackID] {
			return fmt.Errorf("subscores names %s which is not required: %w", trackID, common.ErrValidation)
		}
		if !category.Valid() {
			return fmt.Errorf("unknown subscore %q: %w", category, common.ErrValidation)
		}
	}
	return nil
}
