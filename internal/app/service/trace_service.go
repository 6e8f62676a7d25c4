package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/platform/queue"
)

const (
	defaultTraceLimit = 50
	maxTraceLimit     = 500
)

// TraceService records lifecycle events. With a redis client events go
// through the trace queue and the worker persists them; without one they are
// written directly. Recording never fails the caller's operation.
type TraceService struct {
	repo      repository.TraceRepository
	rdb       *redis.Client
	queueName string
	now       func() time.Time
}

func NewTraceService(repo repository.TraceRepository, rdb *redis.Client, queueName string) *TraceService {
	return &TraceService{
		repo:      repo,
		rdb:       rdb,
		queueName: queueName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TraceService) Record(ctx context.Context, eventType, actorID string, payload map[string]string) {
	if payload == nil {
		payload = map[string]string{}
	}
	event := &model.TraceEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: s.now().Truncate(time.Second),
	}

	if s.rdb != nil {
		err := queue.Push(ctx, s.rdb, s.queueName, event)
		if err == nil {
			return
		}
		log.Printf("WARN: Failed to enqueue trace event %s, writing directly: %v", eventType, err)
	}
	if err := s.repo.Append(ctx, event); err != nil {
		log.Printf("ERROR: Failed to record trace event %s for %s: %v", eventType, actorID, err)
	}
}

// Latest returns the newest events; limit is clamped to a sane window.
func (s *TraceService) Latest(ctx context.Context, limit int) ([]model.TraceEvent, error) {
	if limit <= 0 {
		limit = defaultTraceLimit
	}
	if limit > maxTraceLimit {
		limit = maxTraceLimit
	}
	return s.repo.Latest(ctx, limit)
}
