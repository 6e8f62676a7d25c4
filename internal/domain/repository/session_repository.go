package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, s *model.Session) error
	// ListOpen returns the candidate's non-terminal sessions for a track.
	ListOpen(ctx context.Context, candidateID, trackID string) ([]model.Session, error)
}

type sqlSessionRepository struct {
	db *sql.DB
}

func NewSQLSessionRepository(db *sql.DB) SessionRepository {
	return &sqlSessionRepository{db: db}
}

func sessionColumnsFor(s *model.Session) (served, topics string, err error) {
	if served, err = marshalJSON(s.ServedQuestionIDs); err != nil {
		return "", "", err
	}
	if topics, err = marshalJSON(s.TopicLastServed); err != nil {
		return "", "", err
	}
	return served, topics, nil
}

func (r *sqlSessionRepository) Create(ctx context.Context, s *model.Session) error {
	served, topics, err := sessionColumnsFor(s)
	if err != nil {
		return err
	}
	query := `INSERT INTO sessions (id, candidate_id, track_id, state, current_band, served_json, topics_json, created_at, expires_at, first_question_at, finalized_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query, s.ID, s.CandidateID, s.TrackID, string(s.State), string(s.CurrentBand), served, topics,
		toUnix(s.CreatedAt), toUnix(s.ExpiresAt), toNullUnix(s.FirstQuestionAt), toNullUnix(s.FinalizedAt))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("session %s already exists: %w", s.ID, common.ErrConflict)
		}
		return fmt.Errorf("sqlSessionRepository.Create: %w", err)
	}
	return nil
}

const sessionColumns = `id, candidate_id, track_id, state, current_band, served_json, topics_json, created_at, expires_at, first_question_at, finalized_at`

func scanSession(row rowScanner) (*model.Session, error) {
	s := &model.Session{}
	var state, band, served, topics string
	var createdAt, expiresAt int64
	var firstAt, finalizedAt sql.NullInt64
	if err := row.Scan(&s.ID, &s.CandidateID, &s.TrackID, &state, &band, &served, &topics, &createdAt, &expiresAt, &firstAt, &finalizedAt); err != nil {
		return nil, err
	}
	s.State = model.SessionState(state)
	s.CurrentBand = model.Band(band)
	s.CreatedAt = fromUnix(createdAt)
	s.ExpiresAt = fromUnix(expiresAt)
	s.FirstQuestionAt = fromNullUnix(firstAt)
	s.FinalizedAt = fromNullUnix(finalizedAt)
	if err := unmarshalJSON(served, &s.ServedQuestionIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(topics, &s.TopicLastServed); err != nil {
		return nil, err
	}
	if s.ServedQuestionIDs == nil {
		s.ServedQuestionIDs = []string{}
	}
	if s.TopicLastServed == nil {
		s.TopicLastServed = map[string]int{}
	}
	return s, nil
}

func (r *sqlSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlSessionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *sqlSessionRepository) Update(ctx context.Context, s *model.Session) error {
	served, topics, err := sessionColumnsFor(s)
	if err != nil {
		return err
	}
	query := `UPDATE sessions SET state = $1, current_band = $2, served_json = $3, topics_json = $4,
	              first_question_at = $5, finalized_at = $6
	          WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, string(s.State), string(s.CurrentBand), served, topics,
		toNullUnix(s.FirstQuestionAt), toNullUnix(s.FinalizedAt), s.ID)
	if err != nil {
		return fmt.Errorf("sqlSessionRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", s.ID, common.ErrNotFound)
	}
	return nil
}

func (r *sqlSessionRepository) ListOpen(ctx context.Context, candidateID, trackID string) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
	          WHERE candidate_id = $1 AND track_id = $2 AND state IN ($3, $4)
	          ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, candidateID, trackID, string(model.SessionCreated), string(model.SessionActive))
	if err != nil {
		return nil, fmt.Errorf("sqlSessionRepository.ListOpen: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlSessionRepository.ListOpen scan: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
