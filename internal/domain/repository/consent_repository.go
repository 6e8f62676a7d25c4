package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vgp_platform/internal/domain/model"
)

// ConsentRepository is append-only. Grant reports whether a new grant was
// written; a repeated grant keeps the original timestamp.
type ConsentRepository interface {
	Grant(ctx context.Context, g *model.ConsentGrant) (bool, error)
	Has(ctx context.Context, candidateID, employerID string) (bool, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]model.ConsentGrant, error)
	ListByEmployer(ctx context.Context, employerID string) ([]model.ConsentGrant, error)
}

type sqlConsentRepository struct {
	db *sql.DB
}

func NewSQLConsentRepository(db *sql.DB) ConsentRepository {
	return &sqlConsentRepository{db: db}
}

func (r *sqlConsentRepository) Grant(ctx context.Context, g *model.ConsentGrant) (bool, error) {
	query := `INSERT INTO consent_grants (candidate_id, employer_id, granted_at) VALUES ($1, $2, $3)
	          ON CONFLICT (candidate_id, employer_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, g.CandidateID, g.EmployerID, toUnix(g.GrantedAt))
	if err != nil {
		return false, fmt.Errorf("sqlConsentRepository.Grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlConsentRepository.Grant rows: %w", err)
	}
	return n > 0, nil
}

func (r *sqlConsentRepository) Has(ctx context.Context, candidateID, employerID string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM consent_grants WHERE candidate_id = $1 AND employer_id = $2`
	if err := r.db.QueryRowContext(ctx, query, candidateID, employerID).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlConsentRepository.Has: %w", err)
	}
	return n > 0, nil
}

func (r *sqlConsentRepository) ListByCandidate(ctx context.Context, candidateID string) ([]model.ConsentGrant, error) {
	return r.list(ctx, `SELECT candidate_id, employer_id, granted_at FROM consent_grants
	                    WHERE candidate_id = $1 ORDER BY granted_at, employer_id`, candidateID)
}

func (r *sqlConsentRepository) ListByEmployer(ctx context.Context, employerID string) ([]model.ConsentGrant, error) {
	return r.list(ctx, `SELECT candidate_id, employer_id, granted_at FROM consent_grants
	                    WHERE employer_id = $1 ORDER BY candidate_id`, employerID)
}

func (r *sqlConsentRepository) list(ctx context.Context, query, arg string) ([]model.ConsentGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("sqlConsentRepository.list: %w", err)
	}
	defer rows.Close()

	grants := []model.ConsentGrant{}
	for rows.Next() {
		var g model.ConsentGrant
		var grantedAt int64
		if err := rows.Scan(&g.CandidateID, &g.EmployerID, &grantedAt); err != nil {
			return nil, fmt.Errorf("sqlConsentRepository.list scan: %w", err)
		}
		g.GrantedAt = fromUnix(grantedAt)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
