package model

import "time"

const (
	EventCandidateCreated = "candidate.created"
	EventEmployerCreated  = "employer.created"
	EventSessionCreated   = "session.created"
	EventQuestionAssigned = "session.question_assigned"
	EventResponseRecorded = "session.response_recorded"
	EventSessionExpired   = "session.expired"
	EventSessionAbandoned = "session.abandoned"
	EventSessionScored    = "session.scored"
	EventCandidateShare   = "candidate.share"
	EventJobUpserted      = "job.upserted"
	EventJobFilterRun     = "job.filter_run"
	EventBankImported     = "bank.imported"
)

type TraceEvent struct {
	ID        string            `json:"id"`
	EventType string            `json:"eventType"`
	ActorID   string            `json:"actorId,omitempty"`
	Payload   map[string]string `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
}
