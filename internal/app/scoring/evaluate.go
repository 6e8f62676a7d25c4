package scoring

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"vgp_platform/internal/domain/model"
)

type Config struct {
	// PlagiarismThreshold is the copied/code length ratio above which a
	// coding response is flagged.
	PlagiarismThreshold float64
	// CodingPassThreshold is the heuristic score at which a coding answer
	// counts as passing for adaptation.
	CodingPassThreshold float64
	StrengthThreshold   int
	WeaknessThreshold   int
}

func DefaultConfig() Config {
	return Config{
		PlagiarismThreshold: 0.6,
		CodingPassThreshold: 0.5,
		StrengthThreshold:   80,
		WeaknessThreshold:   50,
	}
}

// DefaultRubric is used for coding questions that carry no rubric of their own.
var DefaultRubric = model.Rubric{
	Checks: []model.RubricCheck{
		{AnyOf: []string{"def ", "function ", "=>", "create "}, Weight: 30},
		{AnyOf: []string{"return", "select "}, Weight: 30},
		{AnyOf: []string{"for ", "for(", "while ", "while(", ".map(", ".reduce(", "group by"}, Weight: 20},
		{AnyOf: []string{"dict", "{", "join "}, Weight: 20},
	},
	Forbidden: []string{"while(true)", "whiletrue:", "while(1)", "while1:", "for(;;)"},
}

// Evaluation is the scored form of one response.
type Evaluation struct {
	QuestionID  string
	Category    model.Category
	Weight      int
	Correctness float64
	CopyRatio   float64
	Flagged     bool
	Passed      bool
}

// Evaluate grades one response against its question.
func Evaluate(q model.Question, r model.Response, cfg Config) Evaluation {
	ev := Evaluation{
		QuestionID: q.ID,
		Category:   q.Category,
		Weight:     q.Band.Weight(),
	}

	switch q.Type {
	case model.QuestionTypeMCQ:
		if strings.TrimSpace(r.Answer) == strings.TrimSpace(q.AnswerKey) {
			ev.Correctness = 1
		}
		ev.Passed = ev.Correctness == 1
	case model.QuestionTypeCoding:
		ev.Correctness = CodeQuality(r.Code, q.Rubric)
		ev.CopyRatio = CopyRatio(r.CopiedCharacters, r.Code)
		ev.Flagged = ev.CopyRatio > cfg.PlagiarismThreshold
		ev.Passed = !ev.Flagged && ev.Correctness >= cfg.CodingPassThreshold
	}
	return ev
}

// CopyRatio is copied characters over code length, clamped to [0,1]. Empty
// code has ratio 0.
func CopyRatio(copied int, code string) float64 {
	n := utf8.RuneCountInString(code)
	if n == 0 || copied <= 0 {
		return 0
	}
	return math.Min(1, float64(copied)/float64(n))
}

// CodeQuality scores code against a rubric without running it. The result is
// the satisfied share of check weight; forbidden constructs score 0.
func CodeQuality(code string, rubric model.Rubric) float64 {
	if strings.TrimSpace(code) == "" {
		return 0
	}
	if len(rubric.Checks) == 0 {
		rubric = DefaultRubric
	}

	lower := strings.ToLower(code)
	compact := compactLower(code)

	forbidden := rubric.Forbidden
	if len(forbidden) == 0 {
		forbidden = DefaultRubric.Forbidden
	}
	for _, f := range forbidden {
		if strings.Contains(compact, compactLower(f)) {
			return 0
		}
	}

	var total, got float64
	for _, check := range rubric.Checks {
		if check.Weight <= 0 {
			continue
		}
		total += check.Weight
		for _, pattern := range check.AnyOf {
			if strings.Contains(lower, strings.ToLower(pattern)) {
				got += check.Weight
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return got / total
}

func compactLower(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
