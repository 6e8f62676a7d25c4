// Package adaptive picks the next question of a session. Adaptation is single
// step: only the last response moves the band.
package adaptive

import (
	"sort"

	"vgp_platform/internal/domain/model"
)

type Outcome int

const (
	// OutcomeNone means nothing has been answered yet.
	OutcomeNone Outcome = iota
	OutcomePass
	OutcomeFail
)

// NextBand applies the last outcome to the current band.
func NextBand(current model.Band, last Outcome) model.Band {
	switch last {
	case OutcomePass:
		return current.Up()
	case OutcomeFail:
		return current.Down()
	}
	return current
}

// WideningOrder lists every band by distance from target, nearest first,
// lower band first on ties.
func WideningOrder(target model.Band) []model.Band {
	ti := target.Index()
	order := append([]model.Band(nil), model.Bands...)
	sort.SliceStable(order, func(i, j int) bool {
		return abs(order[i].Index()-ti) < abs(order[j].Index()-ti)
	})
	return order
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Pick returns the best unseen question for target, widening to other bands
// when target has none left. Within a band the topic used longest ago wins
// (never-used topics first), then the lowest id.
func Pick(pool []model.Question, target model.Band, served map[string]bool, topicLast map[string]int) (model.Question, bool) {
	for _, band := range WideningOrder(target) {
		var best *model.Question
		for i := range pool {
			q := &pool[i]
			if q.Band != band || served[q.ID] {
				continue
			}
			if best == nil || better(q, best, topicLast) {
				best = q
			}
		}
		if best != nil {
			return *best, true
		}
	}
	return model.Question{}, false
}

func better(a, b *model.Question, topicLast map[string]int) bool {
	ra, rb := topicRank(a.Topic, topicLast), topicRank(b.Topic, topicLast)
	if ra != rb {
		return ra < rb
	}
	return a.ID < b.ID
}

func topicRank(topic string, topicLast map[string]int) int {
	if idx, ok := topicLast[topic]; ok {
		return idx
	}
	return -1
}

// Selector wraps Pick with the session bookkeeping.
type Selector struct {
	Budget int
}

// Next chooses the next question for s after applying last. On success the
// session's band becomes the served question's band and the question is
// recorded as served. ok is false when the budget is spent or the pool is dry;
// the session is left untouched in that case.
func (sel Selector) Next(s *model.Session, pool []model.Question, last Outcome) (model.Question, bool) {
	if sel.Budget > 0 && len(s.ServedQuestionIDs) >= sel.Budget {
		return model.Question{}, false
	}

	served := make(map[string]bool, len(s.ServedQuestionIDs))
	for _, id := range s.ServedQuestionIDs {
		served[id] = true
	}
	target := NextBand(s.CurrentBand, last)
	q, ok := Pick(pool, target, served, s.TopicLastServed)
	if !ok {
		return model.Question{}, false
	}

	if s.TopicLastServed == nil {
		s.TopicLastServed = map[string]int{}
	}
	s.TopicLastServed[q.Topic] = len(s.ServedQuestionIDs)
	s.ServedQuestionIDs = append(s.ServedQuestionIDs, q.ID)
	s.CurrentBand = q.Band
	return q, true
}
