package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandMoves(t *testing.T) {
	tests := []struct {
		band       Band
		up, down   Band
		wantWeight int
	}{
		{BandEasy, BandMedium, BandEasy, 1},
		{BandMedium, BandHard, BandEasy, 2},
		{BandHard, BandHard, BandMedium, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.band), func(t *testing.T) {
			assert.Equal(t, tt.up, tt.band.Up())
			assert.Equal(t, tt.down, tt.band.Down())
			assert.Equal(t, tt.wantWeight, tt.band.Weight())
		})
	}
}

func TestParseBand(t *testing.T) {
	b, err := ParseBand(" Hard ")
	require.NoError(t, err)
	assert.Equal(t, BandHard, b)

	_, err = ParseBand("expert")
	assert.Error(t, err)
}

func TestSessionClock(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: t0.Add(30 * time.Minute)}

	assert.False(t, s.ExpiredAt(t0))
	assert.Equal(t, 30*time.Minute, s.TimeRemaining(t0))
	assert.True(t, s.ExpiredAt(t0.Add(30*time.Minute)))
	assert.Equal(t, time.Duration(0), s.TimeRemaining(t0.Add(31*time.Minute)))
}

func TestQuestionViewHidesKey(t *testing.T) {
	q := Question{ID: "q1", Prompt: "p", Type: QuestionTypeMCQ, Options: []string{"a", "b"}, AnswerKey: "a"}
	v := q.View()
	assert.Equal(t, "q1", v.QuestionID)
	assert.Equal(t, []string{"a", "b"}, v.Options)
}
