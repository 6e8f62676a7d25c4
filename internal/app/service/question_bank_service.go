package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
)

// QuestionBankService is the only writer of tracks and questions. Sessions
// read the bank through the track repository.
type QuestionBankService struct {
	trackRepo repository.TrackRepository
	defaults  bank.Defaults
	trace     *TraceService
	now       func() time.Time
}

func NewQuestionBankService(trackRepo repository.TrackRepository, defaults bank.Defaults, trace *TraceService) *QuestionBankService {
	return &QuestionBankService{
		trackRepo: trackRepo,
		defaults:  defaults,
		trace:     trace,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type ImportSummary struct {
	Tracks    int `json:"tracks"`
	Questions int `json:"questions"`
}

// ImportRaw validates a JSON bank document and upserts its contents.
func (s *QuestionBankService) ImportRaw(ctx context.Context, raw []byte) (*ImportSummary, error) {
	doc, err := bank.Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, doc)
}

func (s *QuestionBankService) Import(ctx context.Context, doc *bank.Document) (*ImportSummary, error) {
	tracks, questions, err := doc.Build(s.defaults, s.now().Truncate(time.Second))
	if err != nil {
		return nil, err
	}

	// Every track reference is resolved before anything is written so a bad
	// document leaves the bank untouched.
	known := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		known[t.ID] = true
	}
	for _, q := range questions {
		if known[q.TrackID] {
			continue
		}
		if _, err := s.trackRepo.FindTrackByID(ctx, q.TrackID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("question %s references unknown track %s: %w", q.ID, q.TrackID, common.ErrValidation)
			}
			return nil, fmt.Errorf("failed to look up track %s: %w", q.TrackID, err)
		}
		known[q.TrackID] = true
	}

	for i := range tracks {
		if err := s.trackRepo.UpsertTrack(ctx, &tracks[i]); err != nil {
			return nil, fmt.Errorf("failed to save track %s: %w", tracks[i].ID, err)
		}
	}
	for i := range questions {
		if err := s.trackRepo.UpsertQuestion(ctx, &questions[i]); err != nil {
			return nil, fmt.Errorf("failed to save question %s: %w", questions[i].ID, err)
		}
	}

	summary := &ImportSummary{Tracks: len(tracks), Questions: len(questions)}
	s.trace.Record(ctx, model.EventBankImported, "", map[string]string{
		"tracks":    strconv.Itoa(summary.Tracks),
		"questions": strconv.Itoa(summary.Questions),
	})
	return summary, nil
}

// SeedIfEmpty loads the embedded sample bank into an empty store.
func (s *QuestionBankService) SeedIfEmpty(ctx context.Context) error {
	tracks, err := s.trackRepo.ListTracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}
	if len(tracks) > 0 {
		return nil
	}
	doc, err := bank.Default()
	if err != nil {
		return err
	}
	summary, err := s.Import(ctx, doc)
	if err != nil {
		return err
	}
	log.Printf("INFO: Seeded question bank with %d tracks and %d questions", summary.Tracks, summary.Questions)
	return nil
}

func (s *QuestionBankService) ListTracks(ctx context.Context) ([]model.Track, error) {
	return s.trackRepo.ListTracks(ctx)
}

func (s *QuestionBankService) Stats(ctx context.Context) (*model.BankStats, error) {
	tracks, err := s.trackRepo.ListTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	stats := &model.BankStats{
		ByTrack: map[string]int{},
		ByBand:  map[model.Band]int{},
		Matrix:  map[string]map[model.Band]int{},
	}
	for _, b := range model.Bands {
		stats.ByBand[b] = 0
	}
	for _, t := range tracks {
		questions, err := s.trackRepo.ListQuestions(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list questions for %s: %w", t.ID, err)
		}
		row := map[model.Band]int{}
		for _, b := range model.Bands {
			row[b] = 0
		}
		for _, q := range questions {
			row[q.Band]++
			stats.ByBand[q.Band]++
		}
		stats.Matrix[t.ID] = row
		stats.ByTrack[t.ID] = len(questions)
		stats.Total += len(questions)
	}
	return stats, nil
}
