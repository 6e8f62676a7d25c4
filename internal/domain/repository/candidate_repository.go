package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

type CandidateRepository interface {
	Create(ctx context.Context, c *model.Candidate) error
	FindByID(ctx context.Context, id string) (*model.Candidate, error)
}

type sqlCandidateRepository struct {
	db *sql.DB
}

func NewSQLCandidateRepository(db *sql.DB) CandidateRepository {
	return &sqlCandidateRepository{db: db}
}

func (r *sqlCandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	query := `INSERT INTO candidates (id, name, email, education_level, graduation_year, github, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.EducationLevel, c.GraduationYear, c.Github, toUnix(c.CreatedAt))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("candidate with this email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlCandidateRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlCandidateRepository) FindByID(ctx context.Context, id string) (*model.Candidate, error) {
	query := `SELECT id, name, email, education_level, graduation_year, github, created_at
	          FROM candidates WHERE id = $1`
	c := &model.Candidate{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.EducationLevel, &c.GraduationYear, &c.Github, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlCandidateRepository.FindByID: %w", err)
	}
	c.CreatedAt = fromUnix(createdAt)
	return c, nil
}
