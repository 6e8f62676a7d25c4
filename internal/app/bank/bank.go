// Package bank parses question bank documents. Documents are checked
// against an embedded JSON schema before they are decoded.
package bank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"vgp_platform/internal/common"
	"vgp_platform/internal/domain/model"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default_bank.json
var defaultBankJSON []byte

const schemaURL = "schema://question-bank.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func bankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add bank schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

type TrackSpec struct {
	ID              string `json:"trackId"`
	Name            string `json:"name"`
	QuestionBudget  int    `json:"questionBudget,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type QuestionSpec struct {
	ID               string        `json:"questionId"`
	TrackID          string        `json:"trackId"`
	Type             string        `json:"questionType"`
	Difficulty       string        `json:"difficulty"`
	Topic            string        `json:"topic"`
	Subskill         string        `json:"subskill"`
	Prompt           string        `json:"prompt"`
	Options          []string      `json:"options,omitempty"`
	Answer           string        `json:"answer,omitempty"`
	TimeLimitSeconds int           `json:"timeLimitSeconds,omitempty"`
	Rubric           *model.Rubric `json:"rubric,omitempty"`
}

// Document is the import format shared by the admin API and vgpctl.
type Document struct {
	Tracks    []TrackSpec    `json:"tracks"`
	Questions []QuestionSpec `json:"questions"`
}

// Parse validates raw against the bank schema and decodes it. Schema failures
// wrap common.ErrValidation.
func Parse(raw []byte) (*Document, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("question bank is not valid JSON: %w", common.ErrValidation)
	}
	schema, err := bankSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("question bank rejected: %v: %w", err, common.ErrValidation)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode question bank: %v: %w", err, common.ErrValidation)
	}
	return &doc, nil
}

// Default is the sample bank compiled into the binary.
func Default() (*Document, error) {
	return Parse(defaultBankJSON)
}

// Defaults fill in track settings a document leaves out.
type Defaults struct {
	QuestionBudget  int
	DurationSeconds int
}

// Build converts the document into domain values. Topics are slugged so
// "Control Flow" and "control-flow" count as one topic for coverage.
func (d *Document) Build(defaults Defaults, now time.Time) ([]model.Track, []model.Question, error) {
	tracks := make([]model.Track, 0, len(d.Tracks))
	for _, ts := range d.Tracks {
		t := model.Track{
			ID:              ts.ID,
			Name:            ts.Name,
			QuestionBudget:  ts.QuestionBudget,
			DurationSeconds: ts.DurationSeconds,
			CreatedAt:       now,
		}
		if t.QuestionBudget == 0 {
			t.QuestionBudget = defaults.QuestionBudget
		}
		if t.DurationSeconds == 0 {
			t.DurationSeconds = defaults.DurationSeconds
		}
		tracks = append(tracks, t)
	}

	seen := make(map[string]bool, len(d.Questions))
	questions := make([]model.Question, 0, len(d.Questions))
	for _, qs := range d.Questions {
		if seen[qs.ID] {
			return nil, nil, fmt.Errorf("question %s listed twice: %w", qs.ID, common.ErrValidation)
		}
		seen[qs.ID] = true

		band, err := model.ParseBand(qs.Difficulty)
		if err != nil {
			return nil, nil, fmt.Errorf("question %s: %v: %w", qs.ID, err, common.ErrValidation)
		}
		q := model.Question{
			ID:               qs.ID,
			TrackID:          qs.TrackID,
			Type:             model.QuestionType(qs.Type),
			Band:             band,
			Topic:            slug.Make(qs.Topic),
			Category:         model.Category(qs.Subskill),
			Prompt:           qs.Prompt,
			Options:          qs.Options,
			AnswerKey:        qs.Answer,
			TimeLimitSeconds: qs.TimeLimitSeconds,
		}
		if qs.Rubric != nil {
			q.Rubric = *qs.Rubric
		}
		if q.Type == model.QuestionTypeMCQ && !contains(q.Options, q.AnswerKey) {
			return nil, nil, fmt.Errorf("question %s: answer is not one of the options: %w", qs.ID, common.ErrValidation)
		}
		questions = append(questions, q)
	}
	return tracks, questions, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
