package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vgp_platform/internal/domain/model"
)

type TraceRepository interface {
	Append(ctx context.Context, e *model.TraceEvent) error
	// Latest returns up to limit events, newest first.
	Latest(ctx context.Context, limit int) ([]model.TraceEvent, error)
}

type sqlTraceRepository struct {
	db *sql.DB
}

func NewSQLTraceRepository(db *sql.DB) TraceRepository {
	return &sqlTraceRepository{db: db}
}

func (r *sqlTraceRepository) Append(ctx context.Context, e *model.TraceEvent) error {
	payload, err := marshalJSON(e.Payload)
	if err != nil {
		return err
	}
	query := `INSERT INTO trace_events (id, event_type, actor_id, payload_json, created_at) VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.EventType, e.ActorID, payload, toUnix(e.Timestamp)); err != nil {
		return fmt.Errorf("sqlTraceRepository.Append: %w", err)
	}
	return nil
}

func (r *sqlTraceRepository) Latest(ctx context.Context, limit int) ([]model.TraceEvent, error) {
	query := `SELECT id, event_type, actor_id, payload_json, created_at FROM trace_events
	          ORDER BY created_at DESC, seq DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlTraceRepository.Latest: %w", err)
	}
	defer rows.Close()

	events := []model.TraceEvent{}
	for rows.Next() {
		var e model.TraceEvent
		var payload string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.EventType, &e.ActorID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlTraceRepository.Latest scan: %w", err)
		}
		if err := unmarshalJSON(payload, &e.Payload); err != nil {
			return nil, err
		}
		e.Timestamp = fromUnix(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
