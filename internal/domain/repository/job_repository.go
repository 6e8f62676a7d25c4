package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

type JobRepository interface {
	// Upsert creates the job or replaces its requirements. A job id owned by
	// another employer is a conflict.
	Upsert(ctx context.Context, j *model.JobRequirement) error
	FindByID(ctx context.Context, id string) (*model.JobRequirement, error)
	ListByEmployers(ctx context.Context, employerIDs []string) ([]model.JobRequirement, error)
}

type sqlJobRepository struct {
	db *sql.DB
}

func NewSQLJobRepository(db *sql.DB) JobRepository {
	return &sqlJobRepository{db: db}
}

func (r *sqlJobRepository) Upsert(ctx context.Context, j *model.JobRequirement) error {
	tracks, err := marshalJSON(j.RequiredTracks)
	if err != nil {
		return err
	}
	mins, err := marshalJSON(j.MinScores)
	if err != nil {
		return err
	}
	subs, err := marshalJSON(j.Subscores)
	if err != nil {
		return err
	}

	query := `INSERT INTO jobs (id, employer_id, title, required_tracks_json, min_scores_json, subscores_json, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (id) DO UPDATE SET title = excluded.title, required_tracks_json = excluded.required_tracks_json,
	              min_scores_json = excluded.min_scores_json, subscores_json = excluded.subscores_json
	          WHERE jobs.employer_id = excluded.employer_id`
	res, err := r.db.ExecContext(ctx, query, j.ID, j.EmployerID, j.Title, tracks, mins, subs, toUnix(j.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlJobRepository.Upsert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s belongs to another employer: %w", j.ID, common.ErrConflict)
	}
	return nil
}

const jobColumns = `id, employer_id, title, required_tracks_json, min_scores_json, subscores_json, created_at`

func scanJob(row rowScanner) (*model.JobRequirement, error) {
	j := &model.JobRequirement{}
	var tracks, mins, subs string
	var createdAt int64
	if err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &tracks, &mins, &subs, &createdAt); err != nil {
		return nil, err
	}
	j.CreatedAt = fromUnix(createdAt)
	if err := unmarshalJSON(tracks, &j.RequiredTracks); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(mins, &j.MinScores); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(subs, &j.Subscores); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *sqlJobRepository) FindByID(ctx context.Context, id string) (*model.JobRequirement, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlJobRepository.FindByID: %w", err)
	}
	return j, nil
}

func (r *sqlJobRepository) ListByEmployers(ctx context.Context, employerIDs []string) ([]model.JobRequirement, error) {
	jobs := []model.JobRequirement{}
	if len(employerIDs) == 0 {
		return jobs, nil
	}

	placeholders := make([]string, len(employerIDs))
	args := make([]interface{}, len(employerIDs))
	for i, id := range employerIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE employer_id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlJobRepository.ListByEmployers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlJobRepository.ListByEmployers scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
