package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

func mcq(id string, band model.Band, cat model.Category) model.Question {
	return model.Question{ID: id, Type: model.QuestionTypeMCQ, Band: band, Category: cat, Options: []string{"a", "b"}, AnswerKey: "a"}
}

func coding(id string, band model.Band, cat model.Category) model.Question {
	return model.Question{ID: id, Type: model.QuestionTypeCoding, Band: band, Category: cat}
}

func bank(qs ...model.Question) map[string]model.Question {
	m := map[string]model.Question{}
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}

func TestScoreWeightsByBand(t *testing.T) {
	questions := bank(
		mcq("e1", model.BandEasy, model.CategoryAlgorithms),
		mcq("e2", model.BandEasy, model.CategoryAlgorithms),
		mcq("h1", model.BandHard, model.CategoryAlgorithms),
	)
	responses := []model.Response{
		{QuestionID: "e1", Answer: "a"},
		{QuestionID: "e2", Answer: " a "},
		{QuestionID: "h1", Answer: "b"},
	}

	res, err := Score(questions, responses, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int{model.CategoryAlgorithms: 40}, res.Subscores)
	assert.Equal(t, 40, res.Overall)
	assert.Equal(t, []string{"algorithms"}, res.Weaknesses)
	assert.Empty(t, res.Strengths)
	assert.Empty(t, res.Flags)
}

func TestScoreOverallIsWeightedByCategoryWeight(t *testing.T) {
	questions := bank(
		mcq("a1", model.BandHard, model.CategoryAlgorithms),
		mcq("d1", model.BandEasy, model.CategoryDataStructures),
	)
	responses := []model.Response{
		{QuestionID: "a1", Answer: "a"},
		{QuestionID: "d1", Answer: "b"},
	}

	res, err := Score(questions, responses, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 100, res.Subscores[model.CategoryAlgorithms])
	assert.Equal(t, 0, res.Subscores[model.CategoryDataStructures])
	_, present := res.Subscores[model.CategoryCodeQuality]
	assert.False(t, present, "unanswered categories are omitted")
	assert.Equal(t, 75, res.Overall)
	assert.Equal(t, []string{"algorithms"}, res.Strengths)
	assert.Equal(t, []string{"data_structures"}, res.Weaknesses)
}

func TestScoreFlagsCopiedCode(t *testing.T) {
	code := "def f(xs):\n    for x in xs:\n        return {x: 1}\n"
	questions := bank(
		coding("cq", model.BandMedium, model.CategoryCodeQuality),
		coding("alg", model.BandMedium, model.CategoryAlgorithms),
	)
	responses := []model.Response{
		{QuestionID: "cq", Code: code, CopiedCharacters: len(code)},
		{QuestionID: "alg", Code: code, CopiedCharacters: len(code) * 7 / 10},
	}

	res, err := Score(questions, responses, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Flags, 2)
	assert.Equal(t, model.FlagSuspectedCopy, res.Flags[0].Flag)
	assert.Equal(t, 1.0, res.Flags[0].CopyRatio)

	_, present := res.Subscores[model.CategoryCodeQuality]
	assert.False(t, present, "flagged code is excluded from code_quality")
	assert.InDelta(t, 30, res.Subscores[model.CategoryAlgorithms], 1)
}

func TestScoreEmptyLedger(t *testing.T) {
	_, err := Score(bank(), nil, DefaultConfig())
	assert.ErrorIs(t, err, common.ErrScoring)
}

func TestScoreUnknownQuestion(t *testing.T) {
	_, err := Score(bank(), []model.Response{{QuestionID: "ghost"}}, DefaultConfig())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCodeQuality(t *testing.T) {
	tests := []struct {
		name string
		code string
		want float64
	}{
		{"empty", "   ", 0},
		{"full marks", "def f(d):\n    for k in d:\n        pass\n    return dict(d)", 1},
		{"def and return", "def f():\n    return 1", 0.6},
		{"infinite loop", "def f():\n    while True:\n        return {}", 0},
		{"js infinite loop", "function f() { for (;;) { return 1 } }", 0},
		{"case insensitive", "DEF F():\n    RETURN 1", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CodeQuality(tt.code, model.Rubric{}), 1e-9)
		})
	}
}

func TestCodeQualityCustomRubric(t *testing.T) {
	rubric := model.Rubric{Checks: []model.RubricCheck{
		{AnyOf: []string{"group by"}, Weight: 1},
		{AnyOf: []string{"having"}, Weight: 3},
		{AnyOf: []string{"ignored"}, Weight: 0},
	}}
	assert.InDelta(t, 0.25, CodeQuality("SELECT dept FROM e GROUP BY dept", rubric), 1e-9)
}

func TestEvaluatePassing(t *testing.T) {
	cfg := DefaultConfig()
	q := coding("c", model.BandEasy, model.CategoryAlgorithms)
	code := "def f():\n    return 1"

	ev := Evaluate(q, model.Response{Code: code}, cfg)
	assert.True(t, ev.Passed)
	assert.Equal(t, 1, ev.Weight)

	ev = Evaluate(q, model.Response{Code: code, CopiedCharacters: len(code)}, cfg)
	assert.True(t, ev.Flagged)
	assert.False(t, ev.Passed)

	ev = Evaluate(q, model.Response{Code: strings.Repeat("x", 10)}, cfg)
	assert.False(t, ev.Passed)

	ev = Evaluate(mcq("m", model.BandHard, model.CategoryAlgorithms), model.Response{Answer: "b"}, cfg)
	assert.False(t, ev.Passed)
	assert.Equal(t, 3, ev.Weight)
}

func TestCopyRatio(t *testing.T) {
	assert.Equal(t, 0.0, CopyRatio(5, ""))
	assert.Equal(t, 0.5, CopyRatio(2, "abcd"))
	assert.Equal(t, 1.0, CopyRatio(10, "abcd"))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 50, Percentile(0, 0))
	assert.Equal(t, 0, Percentile(0, 4))
	assert.Equal(t, 66, Percentile(2, 3))
	assert.Equal(t, 99, Percentile(10, 10))
}
