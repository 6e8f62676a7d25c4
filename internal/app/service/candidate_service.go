package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

type CandidateService struct {
	candidateRepo repository.CandidateRepository
	consentRepo   repository.ConsentRepository
	trace         *TraceService
	now           func() time.Time
}

func NewCandidateService(candidateRepo repository.CandidateRepository, consentRepo repository.ConsentRepository, trace *TraceService) *CandidateService {
	return &CandidateService{
		candidateRepo: candidateRepo,
		consentRepo:   consentRepo,
		trace:         trace,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type CreateCandidateRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	EducationLevel string `json:"educationLevel"`
	GraduationYear int    `json:"graduationYear"`
	Github         string `json:"github"`
}

// IdentityResponse is returned when a candidate or employer registers. The
// token authorizes every later call scoped to that id.
type IdentityResponse struct {
	CandidateID string `json:"candidateId,omitempty"`
	EmployerID  string `json:"employerId,omitempty"`
	Token       string `json:"token"`
}

type CandidateProfile struct {
	*model.Candidate
	SharedWith []string `json:"sharedWith"`
}

func (s *CandidateService) Create(ctx context.Context, req CreateCandidateRequest) (*IdentityResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required: %w", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("email %q is not valid: %w", req.Email, common.ErrValidation)
	}
	if req.GraduationYear < 0 {
		return nil, fmt.Errorf("graduationYear must not be negative: %w", common.ErrValidation)
	}

	candidate := &model.Candidate{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		EducationLevel: req.EducationLevel,
		GraduationYear: req.GraduationYear,
		Github:         req.Github,
		CreatedAt:      s.now().Truncate(time.Second),
	}
	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	token, err := security.GenerateToken(candidate.ID, security.RoleCandidate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.trace.Record(ctx, model.EventCandidateCreated, candidate.ID, nil)
	return &IdentityResponse{CandidateID: candidate.ID, Token: token}, nil
}

func (s *CandidateService) Get(ctx context.Context, candidateID string) (*CandidateProfile, error) {
	candidate, err := s.candidateRepo.FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	grants, err := s.consentRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent grants: %w", err)
	}
	shared := make([]string, 0, len(grants))
	for _, g := range grants {
		shared = append(shared, g.EmployerID)
	}
	return &CandidateProfile{Candidate: candidate, SharedWith: shared}, nil
}
