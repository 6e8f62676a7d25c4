package model

import "time"

type SessionState string

const (
	SessionCreated   SessionState = "created"
	SessionActive    SessionState = "active"
	SessionCompleted SessionState = "completed"
	SessionExpired   SessionState = "expired"
	SessionAbandoned SessionState = "abandoned"
)

func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionExpired || s == SessionAbandoned
}

type Session struct {
	ID          string       `json:"sessionId"`
	CandidateID string       `json:"candidateId"`
	TrackID     string       `json:"trackId"`
	State       SessionState `json:"state"`
	CurrentBand Band         `json:"band"`
	// ServedQuestionIDs is in serve order; its length is the served count.
	ServedQuestionIDs []string `json:"servedQuestionIds"`
	// TopicLastServed maps a topic to the serve index at which it was last used.
	TopicLastServed map[string]int `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	FirstQuestionAt *time.Time     `json:"firstQuestionAt,omitempty"`
	FinalizedAt     *time.Time     `json:"finalizedAt,omitempty"`
}

func (s *Session) HasServed(questionID string) bool {
	for _, id := range s.ServedQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the time budget is exhausted at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeRemaining is clamped at zero.
func (s *Session) TimeRemaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Response struct {
	SessionID        string       `json:"sessionId"`
	QuestionID       string       `json:"questionId"`
	Seq              int          `json:"seq"`
	ResponseType     QuestionType `json:"responseType"`
	Answer           string       `json:"answer,omitempty"`
	Code             string       `json:"code,omitempty"`
	TimeTakenSeconds int          `json:"timeTakenSeconds"`
	CopiedCharacters int          `json:"copiedCharacters"`
	RecordedAt       time.Time    `json:"recordedAt"`
}
