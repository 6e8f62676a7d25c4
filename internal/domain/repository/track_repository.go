package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// TrackRepository is the read side of the question bank plus the import
// path used by operators.
type TrackRepository interface {
	UpsertTrack(ctx context.Context, t *model.Track) error
	FindTrackByID(ctx context.Context, id string) (*model.Track, error)
	ListTracks(ctx context.Context) ([]model.Track, error)

	UpsertQuestion(ctx context.Context, q *model.Question) error
	FindQuestionByID(ctx context.Context, id string) (*model.Question, error)
	// ListQuestions returns the track's questions ordered by id.
	ListQuestions(ctx context.Context, trackID string) ([]model.Question, error)
}

type sqlTrackRepository struct {
	db *sql.DB
}

func NewSQLTrackRepository(db *sql.DB) TrackRepository {
	return &sqlTrackRepository{db: db}
}

func (r *sqlTrackRepository) UpsertTrack(ctx context.Context, t *model.Track) error {
	query := `INSERT INTO tracks (id, name, question_budget, duration_seconds, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (id) DO UPDATE SET name = excluded.name,
	              question_budget = excluded.question_budget, duration_seconds = excluded.duration_seconds`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.QuestionBudget, t.DurationSeconds, toUnix(t.CreatedAt)); err != nil {
		return fmt.Errorf("sqlTrackRepository.UpsertTrack: %w", err)
	}
	return nil
}

func (r *sqlTrackRepository) FindTrackByID(ctx context.Context, id string) (*model.Track, error) {
	query := `SELECT id, name, question_budget, duration_seconds, created_at FROM tracks WHERE id = $1`
	t := &model.Track{}
	var createdAt int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.QuestionBudget, &t.DurationSeconds, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("track %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlTrackRepository.FindTrackByID: %w", err)
	}
	t.CreatedAt = fromUnix(createdAt)
	return t, nil
}

func (r *sqlTrackRepository) ListTracks(ctx context.Context) ([]model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, question_budget, duration_seconds, created_at FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlTrackRepository.ListTracks: %w", err)
	}
	defer rows.Close()

	tracks := []model.Track{}
	for rows.Next() {
		var t model.Track
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Name, &t.QuestionBudget, &t.DurationSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlTrackRepository.ListTracks scan: %w", err)
		}
		t.CreatedAt = fromUnix(createdAt)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (r *sqlTrackRepository) UpsertQuestion(ctx context.Context, q *model.Question) error {
	options, err := marshalJSON(q.Options)
	if err != nil {
		return err
	}
	rubric, err := marshalJSON(q.Rubric)
	if err != nil {
		return err
	}
	query := `INSERT INTO questions (id, track_id, question_type, band, topic, category, prompt, options_json, answer_key, rubric_json, time_limit_seconds)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          ON CONFLICT (id) DO UPDATE SET track_id = excluded.track_id, question_type = excluded.question_type,
	              band = excluded.band, topic = excluded.topic, category = excluded.category, prompt = excluded.prompt,
	              options_json = excluded.options_json, answer_key = excluded.answer_key,
	              rubric_json = excluded.rubric_json, time_limit_seconds = excluded.time_limit_seconds`
	_, err = r.db.ExecContext(ctx, query, q.ID, q.TrackID, string(q.Type), string(q.Band), q.Topic, string(q.Category),
		q.Prompt, options, q.AnswerKey, rubric, q.TimeLimitSeconds)
	if err != nil {
		return fmt.Errorf("sqlTrackRepository.UpsertQuestion: %w", err)
	}
	return nil
}

const questionColumns = `id, track_id, question_type, band, topic, category, prompt, options_json, answer_key, rubric_json, time_limit_seconds`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	var qType, band, category, options, rubric string
	if err := row.Scan(&q.ID, &q.TrackID, &qType, &band, &q.Topic, &category, &q.Prompt, &options, &q.AnswerKey, &rubric, &q.TimeLimitSeconds); err != nil {
		return nil, err
	}
	q.Type = model.QuestionType(qType)
	q.Band = model.Band(band)
	q.Category = model.Category(category)
	if err := unmarshalJSON(options, &q.Options); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(rubric, &q.Rubric); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *sqlTrackRepository) FindQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlTrackRepository.FindQuestionByID: %w", err)
	}
	return q, nil
}

func (r *sqlTrackRepository) ListQuestions(ctx context.Context, trackID string) ([]model.Question, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE track_id = $1 ORDER BY id`, trackID)
	if err != nil {
		return nil, fmt.Errorf("sqlTrackRepository.ListQuestions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlTrackRepository.ListQuestions scan: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}
