package model

import "time"

type JobRequirement struct {
	ID             string              `json:"jobId"`
	EmployerID     string              `json:"employerId"`
	Title          string              `json:"title,omitempty"`
	RequiredTracks []string            `json:"requiredTracks"`
	MinScores      map[string]int      `json:"minScores"`
	Subscores      map[string]Category `json:"subscores,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

type ConsentGrant struct {
	CandidateID string    `json:"candidateId"`
	EmployerID  string    `json:"employerId"`
	GrantedAt   time.Time `json:"grantedAt"`
}

type EligibleCandidate struct {
	CandidateID      string         `json:"candidateId"`
	Name             string         `json:"name"`
	TrackScores      map[string]int `json:"trackScores"`
	MatchScore       int            `json:"matchScore"`
	MatchExplanation string         `json:"matchExplanation"`
}

type RoleMatch struct {
	JobID      string `json:"jobId"`
	Company    string `json:"company"`
	MatchScore int    `json:"matchScore"`
}
