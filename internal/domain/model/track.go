package model

import (
	"fmt"
	"strings"
	"time"
)

type Band string

const (
	BandEasy   Band = "easy"
	BandMedium Band = "medium"
	BandHard   Band = "hard"
)

// Bands is the fixed ordering shared by every track.
var Bands = []Band{BandEasy, BandMedium, BandHard}

// InitialBand is where every session starts.
const InitialBand = BandMedium

func ParseBand(s string) (Band, error) {
	switch b := Band(strings.ToLower(strings.TrimSpace(s))); b {
	case BandEasy, BandMedium, BandHard:
		return b, nil
	}
	return "", fmt.Errorf("unknown difficulty band %q", s)
}

func (b Band) Index() int {
	for i, v := range Bands {
		if v == b {
			return i
		}
	}
	return -1
}

// Weight is the scoring weight of a response served at this band.
func (b Band) Weight() int {
	return b.Index() + 1
}

func (b Band) Up() Band {
	if i := b.Index(); i >= 0 && i < len(Bands)-1 {
		return Bands[i+1]
	}
	return b
}

func (b Band) Down() Band {
	if i := b.Index(); i > 0 {
		return Bands[i-1]
	}
	return b
}

type QuestionType string

const (
	QuestionTypeMCQ    QuestionType = "mcq"
	QuestionTypeCoding QuestionType = "coding"
)

type Category string

const (
	CategoryAlgorithms     Category = "algorithms"
	CategoryDataStructures Category = "data_structures"
	CategoryCodeQuality    Category = "code_quality"
)

// Categories is the report ordering of subscores.
var Categories = []Category{CategoryAlgorithms, CategoryDataStructures, CategoryCodeQuality}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Track struct {
	ID              string    `json:"trackId"`
	Name            string    `json:"name"`
	QuestionBudget  int       `json:"questionBudget"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Question struct {
	ID               string       `json:"questionId"`
	TrackID          string       `json:"trackId"`
	Type             QuestionType `json:"questionType"`
	Band             Band         `json:"difficulty"`
	Topic            string       `json:"topic"`
	Category         Category     `json:"subskill"`
	Prompt           string       `json:"prompt"`
	Options          []string     `json:"options,omitempty"`
	AnswerKey        string       `json:"-"`
	Rubric           Rubric       `json:"-"`
	TimeLimitSeconds int          `json:"timeLimitSeconds,omitempty"`
}

// Rubric drives the static quality heuristic for coding answers. A check is
// satisfied when the lowercased code contains any of its patterns.
type Rubric struct {
	Checks    []RubricCheck `json:"checks,omitempty"`
	Forbidden []string      `json:"forbidden,omitempty"`
}

type RubricCheck struct {
	AnyOf  []string `json:"anyOf"`
	Weight float64  `json:"weight"`
}

// QuestionView is the candidate-facing projection; it never carries the key.
type QuestionView struct {
	QuestionID       string       `json:"questionId"`
	Prompt           string       `json:"prompt"`
	QuestionType     QuestionType `json:"questionType"`
	Options          []string     `json:"options,omitempty"`
	Topic            string       `json:"topic,omitempty"`
	TimeLimitSeconds int          `json:"timeLimitSeconds,omitempty"`
}

func (q Question) View() QuestionView {
	return QuestionView{
		QuestionID:       q.ID,
		Prompt:           q.Prompt,
		QuestionType:     q.Type,
		Options:          q.Options,
		Topic:            q.Topic,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// BankStats summarizes the question bank for operators.
type BankStats struct {
	Total   int                     `json:"total"`
	ByTrack map[string]int          `json:"byTrack"`
	ByBand  map[Band]int            `json:"byDifficulty"`
	Matrix  map[string]map[Band]int `json:"byTrackAndDifficulty"`
}
