package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

type EmployerRepository interface {
	Create(ctx context.Context, e *model.Employer) error
	FindByID(ctx context.Context, id string) (*model.Employer, error)
}

type sqlEmployerRepository struct {
	db *sql.DB
}

func NewSQLEmployerRepository(db *sql.DB) EmployerRepository {
	return &sqlEmployerRepository{db: db}
}

func (r *sqlEmployerRepository) Create(ctx context.Context, e *model.Employer) error {
	query := `INSERT INTO employers (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.Name, e.Slug, toUnix(e.CreatedAt)); err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("employer already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlEmployerRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlEmployerRepository) FindByID(ctx context.Context, id string) (*model.Employer, error) {
	query := `SELECT id, name, slug, created_at FROM employers WHERE id = $1`
	e := &model.Employer{}
	var createdAt int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Name, &e.Slug, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("employer %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlEmployerRepository.FindByID: %w", err)
	}
	e.CreatedAt = fromUnix(createdAt)
	return e, nil
}
