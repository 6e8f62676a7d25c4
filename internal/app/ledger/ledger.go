// Package ledger is the append-only response log of one session.
package ledger

import (
	"context"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// Store persists ledger entries. Append must reject a second response for the
// same (session, question) with common.ErrDuplicateResponse.
type Store interface {
	Append(ctx context.Context, r *model.Response) error
	ListBySession(ctx context.Context, sessionID string) ([]model.Response, error)
}

type Ledger struct {
	store      Store
	sessionID  string
	entries    []model.Response
	byQuestion map[string]int
}

// Load reads the session's ledger from the store.
func Load(ctx context.Context, store Store, sessionID string) (*Ledger, error) {
	entries, err := store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", sessionID, err)
	}
	l := &Ledger{
		store:      store,
		sessionID:  sessionID,
		entries:    entries,
		byQuestion: make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		l.byQuestion[e.QuestionID] = i
	}
	return l, nil
}

// Append records r as the next entry. Seq and SessionID are assigned here.
func (l *Ledger) Append(ctx context.Context, r model.Response) (model.Response, error) {
	if l.Has(r.QuestionID) {
		return model.Response{}, fmt.Errorf("question %s: %w", r.QuestionID, common.ErrDuplicateResponse)
	}
	r.SessionID = l.sessionID
	r.Seq = len(l.entries) + 1
	if err := l.store.Append(ctx, &r); err != nil {
		return model.Response{}, err
	}
	l.byQuestion[r.QuestionID] = len(l.entries)
	l.entries = append(l.entries, r)
	return r, nil
}

func (l *Ledger) Has(questionID string) bool {
	_, ok := l.byQuestion[questionID]
	return ok
}

func (l *Ledger) Len() int { return len(l.entries) }

// Last is the most recent entry.
func (l *Ledger) Last() (model.Response, bool) {
	if len(l.entries) == 0 {
		return model.Response{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Entries returns a copy in append order.
func (l *Ledger) Entries() []model.Response {
	return append([]model.Response{}, l.entries...)
}

// Pending returns the first served question that has no response yet.
func (l *Ledger) Pending(served []string) (string, bool) {
	for _, id := range served {
		if !l.Has(id) {
			return id, true
		}
	}
	return "", false
}
