package scoring

import (
	"fmt"
	"math"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

// Result is everything in a report that depends only on the ledger.
type Result struct {
	Overall    int
	Subscores  map[model.Category]int
	Strengths  []string
	Weaknesses []string
	Flags      []model.ResponseFlag
	// Evaluations follow ledger order.
	Evaluations []Evaluation
}

// Score grades a finished ledger. questions must contain every answered
// question id. An empty ledger is a scoring error.
func Score(questions map[string]model.Question, responses []model.Response, cfg Config) (*Result, error) {
	if len(responses) == 0 {
		return nil, common.ErrScoring
	}

	type acc struct{ num, den float64 }
	sums := map[model.Category]*acc{}
	res := &Result{
		Subscores:   map[model.Category]int{},
		Strengths:   []string{},
		Weaknesses:  []string{},
		Flags:       []model.ResponseFlag{},
		Evaluations: make([]Evaluation, 0, len(responses)),
	}

	for _, r := range responses {
		q, ok := questions[r.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %s missing from bank: %w", r.QuestionID, common.ErrNotFound)
		}
		ev := Evaluate(q, r, cfg)
		res.Evaluations = append(res.Evaluations, ev)

		contribution := ev.Correctness
		if ev.Flagged {
			res.Flags = append(res.Flags, model.ResponseFlag{
				QuestionID: q.ID,
				Flag:       model.FlagSuspectedCopy,
				CopyRatio:  math.Round(ev.CopyRatio*100) / 100,
			})
			if ev.Category == model.CategoryCodeQuality {
				continue
			}
			contribution *= 1 - ev.CopyRatio
		}

		a, ok := sums[ev.Category]
		if !ok {
			a = &acc{}
			sums[ev.Category] = a
		}
		a.num += float64(ev.Weight) * contribution
		a.den += float64(ev.Weight)
	}

	var overallNum, overallDen float64
	for _, c := range model.Categories {
		a, ok := sums[c]
		if !ok || a.den == 0 {
			continue
		}
		sub := int(math.Round(100 * a.num / a.den))
		res.Subscores[c] = sub
		overallNum += float64(sub) * a.den
		overallDen += a.den

		if sub >= cfg.StrengthThreshold {
			res.Strengths = append(res.Strengths, string(c))
		}
		if sub <= cfg.WeaknessThreshold {
			res.Weaknesses = append(res.Weaknesses, string(c))
		}
	}
	if overallDen > 0 {
		res.Overall = int(math.Round(overallNum / overallDen))
	}
	return res, nil
}

// Percentile ranks a score against a population: the share strictly below,
// floored, capped at 99. An empty population yields 50.
func Percentile(below, total int) int {
	if total <= 0 {
		return 50
	}
	p := 100 * below / total
	if p > 99 {
		return 99
	}
	if p < 0 {
		return 0
	}
	return p
}
