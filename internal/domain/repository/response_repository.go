package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// ResponseRepository is append-only; there is no update or delete.
type ResponseRepository interface {
	Append(ctx context.Context, r *model.Response) error
	// ListBySession returns responses in append order.
	ListBySession(ctx context.Context, sessionID string) ([]model.Response, error)
}

type sqlResponseRepository struct {
	db *sql.DB
}

func NewSQLResponseRepository(db *sql.DB) ResponseRepository {
	return &sqlResponseRepository{db: db}
}

func (r *sqlResponseRepository) Append(ctx context.Context, resp *model.Response) error {
	query := `INSERT INTO responses (session_id, question_id, seq, response_type, answer, code, time_taken_seconds, copied_characters, recorded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, resp.SessionID, resp.QuestionID, resp.Seq, string(resp.ResponseType),
		resp.Answer, resp.Code, resp.TimeTakenSeconds, resp.CopiedCharacters, toUnix(resp.RecordedAt))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("question %s: %w", resp.QuestionID, common.ErrDuplicateResponse)
		}
		return fmt.Errorf("sqlResponseRepository.Append: %w", err)
	}
	return nil
}

func (r *sqlResponseRepository) ListBySession(ctx context.Context, sessionID string) ([]model.Response, error) {
	query := `SELECT session_id, question_id, seq, response_type, answer, code, time_taken_seconds, copied_characters, recorded_at
	          FROM responses WHERE session_id = $1 ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sqlResponseRepository.ListBySession: %w", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var resp model.Response
		var rType string
		var recordedAt int64
		if err := rows.Scan(&resp.SessionID, &resp.QuestionID, &resp.Seq, &rType, &resp.Answer, &resp.Code,
			&resp.TimeTakenSeconds, &resp.CopiedCharacters, &recordedAt); err != nil {
			return nil, fmt.Errorf("sqlResponseRepository.ListBySession scan: %w", err)
		}
		resp.ResponseType = model.QuestionType(rType)
		resp.RecordedAt = fromUnix(recordedAt)
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
