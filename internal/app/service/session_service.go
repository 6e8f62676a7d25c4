package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"vgp_platform/internal/app/adaptive"
	"vgp_platform/internal/app/ledger"
	"vgp_platform/internal/app/scoring"
	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/platform/lock"
)

type SessionConfig struct {
	Scoring scoring.Config
	// DefaultDuration applies to tracks that do not set their own.
	DefaultDuration time.Duration
	// LockTimeout bounds how long a request waits for a busy session.
	LockTimeout time.Duration
}

// SessionStores groups the repositories the session manager reads and writes.
type SessionStores struct {
	Sessions     repository.SessionRepository
	Responses    repository.ResponseRepository
	Reports      repository.ReportRepository
	Tracks       repository.TrackRepository
	Candidates   repository.CandidateRepository
	Distribution repository.ScoreDistribution
}

// SessionService owns the test session lifecycle. Every operation on a
// session runs under that session's lock; expiry is applied lazily on access.
type SessionService struct {
	stores SessionStores
	cfg    SessionConfig
	locker lock.Locker
	trace  *TraceService
	now    func() time.Time
	newID  func() string
}

func NewSessionService(stores SessionStores, cfg SessionConfig, locker lock.Locker, trace *TraceService) *SessionService {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 30 * time.Minute
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	return &SessionService{
		stores: stores,
		cfg:    cfg,
		locker: locker,
		trace:  trace,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

type StartSessionRequest struct {
	TrackID string `json:"trackId"`
}

type StartSessionResponse struct {
	SessionID string    `json:"sessionId"`
	TrackID   string    `json:"trackId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NextQuestionResponse carries either a question, an exhausted marker
// (Question nil, Done true) or, for an expired session, its report.
type NextQuestionResponse struct {
	Question       *model.QuestionView `json:"question"`
	TimeRemaining  int                 `json:"timeRemaining"`
	Band           model.Band          `json:"band,omitempty"`
	QuestionNumber int                 `json:"questionNumber,omitempty"`
	QuestionBudget int                 `json:"questionBudget,omitempty"`
	Done           bool                `json:"done"`
	Expired        bool                `json:"expired,omitempty"`
	Report         *model.ScoreReport  `json:"report,omitempty"`
}

type RecordResponseRequest struct {
	QuestionID       string             `json:"questionId"`
	ResponseType     model.QuestionType `json:"responseType"`
	Answer           string             `json:"answer"`
	Code             string             `json:"code"`
	TimeTakenSeconds int                `json:"timeTakenSeconds"`
	CopiedCharacters int                `json:"copiedCharacters"`
}

type RecordResponseAck struct {
	Status     string `json:"status"`
	QuestionID string `json:"questionId"`
	Seq        int    `json:"seq"`
}

func (s *SessionService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *SessionService) lock(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()
	return s.locker.Lock(lockCtx, key)
}

// loadOwned fetches a session and hides sessions of other candidates behind
// NotFound. An empty candidateID skips the check (admin and CLI callers).
func (s *SessionService) loadOwned(ctx context.Context, candidateID, sessionID string) (*model.Session, error) {
	sess, err := s.stores.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if candidateID != "" && sess.CandidateID != candidateID {
		return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrNotFound)
	}
	return sess, nil
}

func (s *SessionService) Start(ctx context.Context, candidateID string, req StartSessionRequest) (*StartSessionResponse, error) {
	if req.TrackID == "" {
		return nil, fmt.Errorf("trackId is required: %w", common.ErrValidation)
	}
	if _, err := s.stores.Candidates.FindByID(ctx, candidateID); err != nil {
		return nil, err
	}
	track, err := s.stores.Tracks.FindTrackByID(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, "start:"+candidateID+":"+track.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	open, err := s.stores.Sessions.ListOpen(ctx, candidateID, track.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	for i := range open {
		stillOpen, err := s.settleOpen(ctx, open[i].ID)
		if err != nil {
			return nil, err
		}
		if stillOpen {
			return nil, fmt.Errorf("an open session already exists for %s: %w", track.ID, common.ErrConflict)
		}
	}

	now := s.clock()
	duration := s.cfg.DefaultDuration
	if track.DurationSeconds > 0 {
		duration = time.Duration(track.DurationSeconds) * time.Second
	}
	sess := &model.Session{
		ID:                s.newID(),
		CandidateID:       candidateID,
		TrackID:           track.ID,
		State:             model.SessionCreated,
		CurrentBand:       model.InitialBand,
		ServedQuestionIDs: []string{},
		TopicLastServed:   map[string]int{},
		CreatedAt:         now,
		ExpiresAt:         now.Add(duration),
	}
	if err := s.stores.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.trace.Record(ctx, model.EventSessionCreated, candidateID, map[string]string{"sessionId": sess.ID, "trackId": track.ID})
	return &StartSessionResponse{SessionID: sess.ID, TrackID: track.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// settleOpen applies lazy expiry to a session found open while starting a new
// one and reports whether it still blocks the track.
func (s *SessionService) settleOpen(ctx context.Context, sessionID string) (bool, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return false, err
	}
	defer unlock()

	sess, err := s.stores.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.State.Terminal() {
		return false, nil
	}
	if !sess.ExpiredAt(s.clock()) {
		return true, nil
	}
	if _, err := s.expire(ctx, sess); err != nil && !errors.Is(err, common.ErrExpiredSession) {
		return false, err
	}
	return false, nil
}

// expire finalizes a session whose time ran out. Without responses it is
// abandoned and ErrExpiredSession is returned.
func (s *SessionService) expire(ctx context.Context, sess *model.Session) (*model.ScoreReport, error) {
	s.trace.Record(ctx, model.EventSessionExpired, sess.CandidateID, map[string]string{"sessionId": sess.ID})
	report, err := s.finalizeLocked(ctx, sess, model.SessionExpired)
	if errors.Is(err, common.ErrScoring) {
		return nil, fmt.Errorf("session %s expired before any response: %w", sess.ID, common.ErrExpiredSession)
	}
	return report, err
}

func (s *SessionService) NextQuestion(ctx context.Context, candidateID, sessionID string) (*NextQuestionResponse, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	switch sess.State {
	case model.SessionCompleted, model.SessionAbandoned:
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.State, common.ErrConflict)
	case model.SessionExpired:
		report, err := s.stores.Reports.FindBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrExpiredSession)
		}
		return &NextQuestionResponse{Done: true, Expired: true, Report: report}, nil
	}

	if sess.ExpiredAt(now) {
		report, err := s.expire(ctx, sess)
		if err != nil {
			return nil, err
		}
		return &NextQuestionResponse{Done: true, Expired: true, Report: report}, nil
	}

	track, err := s.stores.Tracks.FindTrackByID(ctx, sess.TrackID)
	if err != nil {
		return nil, err
	}
	pool, err := s.stores.Tracks.ListQuestions(ctx, sess.TrackID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	byID := make(map[string]model.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	l, err := ledger.Load(ctx, s.stores.Responses, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &NextQuestionResponse{
		TimeRemaining:  int(sess.TimeRemaining(now) / time.Second),
		Band:           sess.CurrentBand,
		QuestionBudget: track.QuestionBudget,
	}

	// A served but unanswered question is replayed so retries do not burn budget.
	if pendingID, ok := l.Pending(sess.ServedQuestionIDs); ok {
		if q, found := byID[pendingID]; found {
			view := q.View()
			resp.Question = &view
			resp.QuestionNumber = len(sess.ServedQuestionIDs)
			return resp, nil
		}
	}

	outcome := adaptive.OutcomeNone
	if last, ok := l.Last(); ok {
		if q, found := byID[last.QuestionID]; found {
			outcome = adaptive.OutcomeFail
			if scoring.Evaluate(q, last, s.cfg.Scoring).Passed {
				outcome = adaptive.OutcomePass
			}
		}
	}

	selector := adaptive.Selector{Budget: track.QuestionBudget}
	q, ok := selector.Next(sess, pool, outcome)
	if !ok {
		resp.Done = true
		return resp, nil
	}
	if sess.State == model.SessionCreated {
		sess.State = model.SessionActive
		sess.FirstQuestionAt = &now
	}
	if err := s.stores.Sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.trace.Record(ctx, model.EventQuestionAssigned, sess.CandidateID, map[string]string{
		"sessionId":  sess.ID,
		"questionId": q.ID,
		"band":       string(q.Band),
	})
	view := q.View()
	resp.Question = &view
	resp.Band = sess.CurrentBand
	resp.QuestionNumber = len(sess.ServedQuestionIDs)
	return resp, nil
}

func (s *SessionService) RecordResponse(ctx context.Context, candidateID, sessionID string, req RecordResponseRequest) (*RecordResponseAck, error) {
	if req.QuestionID == "" {
		return nil, fmt.Errorf("questionId is required: %w", common.ErrValidation)
	}
	if req.ResponseType != model.QuestionTypeMCQ && req.ResponseType != model.QuestionTypeCoding {
		return nil, fmt.Errorf("responseType must be mcq or coding: %w", common.ErrValidation)
	}
	if req.TimeTakenSeconds < 0 || req.CopiedCharacters < 0 {
		return nil, fmt.Errorf("timeTakenSeconds and copiedCharacters must not be negative: %w", common.ErrValidation)
	}

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	switch sess.State {
	case model.SessionExpired:
		return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrExpiredSession)
	case model.SessionCompleted, model.SessionAbandoned:
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.State, common.ErrConflict)
	}
	if sess.ExpiredAt(now) {
		if _, err := s.expire(ctx, sess); err != nil && !errors.Is(err, common.ErrExpiredSession) {
			return nil, err
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrExpiredSession)
	}

	question, err := s.stores.Tracks.FindQuestionByID(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Load(ctx, s.stores.Responses, sessionID)
	if err != nil {
		return nil, err
	}
	if l.Has(req.QuestionID) {
		return nil, fmt.Errorf("question %s: %w", req.QuestionID, common.ErrDuplicateResponse)
	}
	if !sess.HasServed(req.QuestionID) {
		return nil, fmt.Errorf("question %s was not served in this session: %w", req.QuestionID, common.ErrValidation)
	}
	if question.Type != req.ResponseType {
		return nil, fmt.Errorf("question %s expects a %s response: %w", req.QuestionID, question.Type, common.ErrValidation)
	}

	entry, err := l.Append(ctx, model.Response{
		QuestionID:       req.QuestionID,
		ResponseType:     req.ResponseType,
		Answer:           req.Answer,
		Code:             req.Code,
		TimeTakenSeconds: req.TimeTakenSeconds,
		CopiedCharacters: req.CopiedCharacters,
		RecordedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	s.trace.Record(ctx, model.EventResponseRecorded, sess.CandidateID, map[string]string{
		"sessionId":  sess.ID,
		"questionId": entry.QuestionID,
		"seq":        strconv.Itoa(entry.Seq),
	})
	return &RecordResponseAck{Status: "recorded", QuestionID: entry.QuestionID, Seq: entry.Seq}, nil
}

// Finalize scores the session once. Later calls, concurrent or not, return
// the stored report unchanged.
func (s *SessionService) Finalize(ctx context.Context, candidateID, sessionID string) (*model.ScoreReport, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}

	report, err := s.stores.Reports.FindBySession(ctx, sessionID)
	if err == nil {
		if !sess.State.Terminal() {
			// The report was written but the state change was lost.
			sess.State = model.SessionCompleted
			sess.FinalizedAt = &report.CompletedAt
			if err := s.stores.Sessions.Update(ctx, sess); err != nil {
				return nil, fmt.Errorf("failed to update session: %w", err)
			}
		}
		return report, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	switch sess.State {
	case model.SessionAbandoned:
		return nil, fmt.Errorf("session %s was abandoned: %w", sessionID, common.ErrScoring)
	case model.SessionCompleted, model.SessionExpired:
		return nil, fmt.Errorf("session %s has no report: %w", sessionID, common.ErrScoring)
	}

	target := model.SessionCompleted
	if sess.ExpiredAt(s.clock()) {
		target = model.SessionExpired
		s.trace.Record(ctx, model.EventSessionExpired, sess.CandidateID, map[string]string{"sessionId": sess.ID})
	}
	return s.finalizeLocked(ctx, sess, target)
}

// finalizeLocked scores sess and moves it to state. The caller holds the
// session lock and has checked that no report exists.
func (s *SessionService) finalizeLocked(ctx context.Context, sess *model.Session, state model.SessionState) (*model.ScoreReport, error) {
	now := s.clock()
	l, err := ledger.Load(ctx, s.stores.Responses, sess.ID)
	if err != nil {
		return nil, err
	}

	if l.Len() == 0 {
		sess.State = model.SessionAbandoned
		sess.FinalizedAt = &now
		if err := s.stores.Sessions.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		s.trace.Record(ctx, model.EventSessionAbandoned, sess.CandidateID, map[string]string{"sessionId": sess.ID})
		return nil, fmt.Errorf("session %s has no responses: %w", sess.ID, common.ErrScoring)
	}

	pool, err := s.stores.Tracks.ListQuestions(ctx, sess.TrackID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	questions := make(map[string]model.Question, len(pool))
	for _, q := range pool {
		questions[q.ID] = q
	}
	result, err := scoring.Score(questions, l.Entries(), s.cfg.Scoring)
	if err != nil {
		return nil, err
	}

	below, total, err := s.stores.Distribution.Rank(ctx, sess.TrackID, result.Overall)
	if err != nil {
		return nil, fmt.Errorf("failed to rank score: %w", err)
	}

	report := &model.ScoreReport{
		SessionID:    sess.ID,
		CandidateID:  sess.CandidateID,
		TrackID:      sess.TrackID,
		OverallScore: result.Overall,
		Subscores:    result.Subscores,
		Percentile:   scoring.Percentile(below, total),
		Strengths:    result.Strengths,
		Weaknesses:   result.Weaknesses,
		Flags:        result.Flags,
		CompletedAt:  now,
	}
	if err := s.stores.Reports.Create(ctx, report); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Another replica won the race; its report is the one that stands.
			return s.stores.Reports.FindBySession(ctx, sess.ID)
		}
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	if err := s.stores.Distribution.Add(ctx, sess.TrackID, sess.ID, result.Overall); err != nil {
		log.Printf("ERROR: Failed to add session %s to the %s distribution: %v", sess.ID, sess.TrackID, err)
	}

	sess.State = state
	sess.FinalizedAt = &now
	if err := s.stores.Sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.trace.Record(ctx, model.EventSessionScored, sess.CandidateID, map[string]string{
		"sessionId":    sess.ID,
		"trackId":      sess.TrackID,
		"overallScore": strconv.Itoa(report.OverallScore),
		"flags":        strconv.Itoa(len(report.Flags)),
	})
	return report, nil
}

// LatestReport is the candidate's most recent report on a track.
func (s *SessionService) LatestReport(ctx context.Context, candidateID, trackID string) (*model.ScoreReport, error) {
	if _, err := s.stores.Tracks.FindTrackByID(ctx, trackID); err != nil {
		return nil, err
	}
	return s.stores.Reports.Latest(ctx, candidateID, trackID)
}
