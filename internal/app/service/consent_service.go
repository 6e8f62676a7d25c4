package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

// ConsentService owns candidate to employer sharing. Grants are append-only
// and granting twice is a no-op.
type ConsentService struct {
	consentRepo   repository.ConsentRepository
	candidateRepo repository.CandidateRepository
	employerRepo  repository.EmployerRepository
	trace         *TraceService
	now           func() time.Time
}

func NewConsentService(
	consentRepo repository.ConsentRepository,
	candidateRepo repository.CandidateRepository,
	employerRepo repository.EmployerRepository,
	trace *TraceService,
) *ConsentService {
	return &ConsentService{
		consentRepo:   consentRepo,
		candidateRepo: candidateRepo,
		employerRepo:  employerRepo,
		trace:         trace,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type ShareRequest struct {
	EmployerID string `json:"employerId"`
}

type ShareResponse struct {
	CandidateID string   `json:"candidateId"`
	SharedWith  []string `json:"sharedWith"`
}

// Grant shares the candidate's reports with an employer and returns the full
// list of employers the candidate has shared with.
func (s *ConsentService) Grant(ctx context.Context, candidateID string, req ShareRequest) (*ShareResponse, error) {
	employerID := strings.TrimSpace(req.EmployerID)
	if employerID == "" {
		return nil, fmt.Errorf("employerId is required: %w", common.ErrValidation)
	}
	if _, err := s.candidateRepo.FindByID(ctx, candidateID); err != nil {
		return nil, err
	}
	if _, err := s.employerRepo.FindByID(ctx, employerID); err != nil {
		return nil, err
	}

	created, err := s.consentRepo.Grant(ctx, &model.ConsentGrant{
		CandidateID: candidateID,
		EmployerID:  employerID,
		GrantedAt:   s.now().Truncate(time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record consent: %w", err)
	}
	if created {
		s.trace.Record(ctx, model.EventCandidateShare, candidateID, map[string]string{"employerId": employerID})
	}

	grants, err := s.consentRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consent grants: %w", err)
	}
	resp := &ShareResponse{CandidateID: candidateID, SharedWith: make([]string, 0, len(grants))}
	for _, g := range grants {
		resp.SharedWith = append(resp.SharedWith, g.EmployerID)
	}
	return resp, nil
}

// HasGrant is the only gate the match engine consults.
func (s *ConsentService) HasGrant(ctx context.Context, candidateID, employerID string) (bool, error) {
	return s.consentRepo.Has(ctx, candidateID, employerID)
}
