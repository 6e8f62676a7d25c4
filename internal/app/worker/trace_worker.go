package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vgp_platform/internal/domain/model"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/platform/queue"
)

// TraceWorker drains the trace queue into the trace repository.
type TraceWorker struct {
	rdb       *redis.Client
	traceRepo repository.TraceRepository
	queueName string
	wait      time.Duration
}

func NewTraceWorker(rdb *redis.Client, traceRepo repository.TraceRepository, queueName string) *TraceWorker {
	return &TraceWorker{
		rdb:       rdb,
		traceRepo: traceRepo,
		queueName: queueName,
		wait:      5 * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (w *TraceWorker) Start(ctx context.Context) {
	log.Println("Trace worker started, listening to queue:", w.queueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Trace worker stopping...")
			return
		default:
		}

		if err := w.processOne(ctx); err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Printf("ERROR: Trace worker on '%s': %v", w.queueName, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// processOne moves a single event from the queue to storage. A malformed
// message is logged and dropped.
func (w *TraceWorker) processOne(ctx context.Context) error {
	var event model.TraceEvent
	if err := queue.Pop(ctx, w.rdb, w.queueName, w.wait, &event); err != nil {
		return err
	}
	if event.ID == "" || event.EventType == "" {
		log.Println("WARN: Dropping trace event without id or type")
		return nil
	}

	// Writes are idempotent on event id, so a retried message is harmless.
	if err := w.traceRepo.Append(ctx, &event); err != nil {
		log.Printf("ERROR: Failed to persist trace event %s, re-queueing: %v", event.ID, err)
		if qErr := queue.Push(context.Background(), w.rdb, w.queueName, &event); qErr != nil {
			log.Printf("ERROR: Failed to re-queue trace event %s: %v", event.ID, qErr)
		}
		return err
	}
	return nil
}
