package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// ReportRepository stores immutable score reports. Create fails with
// ErrConflict when the session already has one.
type ReportRepository interface {
	Create(ctx context.Context, r *model.ScoreReport) error
	FindBySession(ctx context.Context, sessionID string) (*model.ScoreReport, error)
	// Latest returns the most recently stored report of a candidate on a
	// track.
	Latest(ctx context.Context, candidateID, trackID string) (*model.ScoreReport, error)
}

type sqlReportRepository struct {
	db *sql.DB
}

func NewSQLReportRepository(db *sql.DB) ReportRepository {
	return &sqlReportRepository{db: db}
}

func (r *sqlReportRepository) Create(ctx context.Context, rep *model.ScoreReport) error {
	subscores, err := marshalJSON(rep.Subscores)
	if err != nil {
		return err
	}
	strengths, err := marshalJSON(rep.Strengths)
	if err != nil {
		return err
	}
	weaknesses, err := marshalJSON(rep.Weaknesses)
	if err != nil {
		return err
	}
	flags, err := marshalJSON(rep.Flags)
	if err != nil {
		return err
	}
	query := `INSERT INTO score_reports (session_id, candidate_id, track_id, overall_score, subscores_json, percentile, strengths_json, weaknesses_json, flags_json, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query, rep.SessionID, rep.CandidateID, rep.TrackID, rep.OverallScore, subscores,
		rep.Percentile, strengths, weaknesses, flags, toUnix(rep.CompletedAt))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("report for session %s: %w", rep.SessionID, common.ErrConflict)
		}
		return fmt.Errorf("sqlReportRepository.Create: %w", err)
	}
	return nil
}

const reportColumns = `session_id, candidate_id, track_id, overall_score, subscores_json, percentile, strengths_json, weaknesses_json, flags_json, completed_at`

func scanReport(row rowScanner) (*model.ScoreReport, error) {
	rep := &model.ScoreReport{}
	var subscores, strengths, weaknesses, flags string
	var completedAt int64
	if err := row.Scan(&rep.SessionID, &rep.CandidateID, &rep.TrackID, &rep.OverallScore, &subscores,
		&rep.Percentile, &strengths, &weaknesses, &flags, &completedAt); err != nil {
		return nil, err
	}
	rep.CompletedAt = fromUnix(completedAt)
	if err := unmarshalJSON(subscores, &rep.Subscores); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(strengths, &rep.Strengths); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(weaknesses, &rep.Weaknesses); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(flags, &rep.Flags); err != nil {
		return nil, err
	}
	normalizeReport(rep)
	return rep, nil
}

// normalizeReport replaces nil collections so a reloaded report encodes the
// same way as a freshly computed one.
func normalizeReport(rep *model.ScoreReport) {
	if rep.Subscores == nil {
		rep.Subscores = map[model.Category]int{}
	}
	if rep.Strengths == nil {
		rep.Strengths = []string{}
	}
	if rep.Weaknesses == nil {
		rep.Weaknesses = []string{}
	}
	if rep.Flags == nil {
		rep.Flags = []model.ResponseFlag{}
	}
}

func (r *sqlReportRepository) FindBySession(ctx context.Context, sessionID string) (*model.ScoreReport, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM score_reports WHERE session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report for session %s: %w", sessionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlReportRepository.FindBySession: %w", err)
	}
	return rep, nil
}

func (r *sqlReportRepository) Latest(ctx context.Context, candidateID, trackID string) (*model.ScoreReport, error) {
	query := `SELECT ` + reportColumns + ` FROM score_reports
	          WHERE candidate_id = $1 AND track_id = $2
	          ORDER BY seq DESC LIMIT 1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, candidateID, trackID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no report for %s on %s: %w", candidateID, trackID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("sqlReportRepository.Latest: %w", err)
	}
	return rep, nil
}
