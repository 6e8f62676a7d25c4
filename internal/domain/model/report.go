package model

import "time"

const FlagSuspectedCopy = "suspected_copy"

// ScoreReport is written once per session and never updated.
type ScoreReport struct {
	SessionID    string           `json:"sessionId"`
	CandidateID  string           `json:"candidateId"`
	TrackID      string           `json:"trackId"`
	OverallScore int              `json:"overallScore"`
	Subscores    map[Category]int `json:"subscores"`
	Percentile   int              `json:"percentile"`
	Strengths    []string         `json:"strengths"`
	Weaknesses   []string         `json:"weaknesses"`
	Flags        []ResponseFlag   `json:"flags"`
	CompletedAt  time.Time        `json:"completedAt"`
}

type ResponseFlag struct {
	QuestionID string  `json:"questionId"`
	Flag       string  `json:"flag"`
	CopyRatio  float64 `json:"copyRatio"`
}

// Score returns the overall score, or the named subscore when category is set.
func (r *ScoreReport) Score(category Category) (int, bool) {
	if category == "" {
		return r.OverallScore, true
	}
	v, ok := r.Subscores[category]
	return v, ok
}
