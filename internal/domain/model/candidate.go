package model

import "time"

type Candidate struct {
	ID             string    `json:"candidateId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	EducationLevel string    `json:"educationLevel,omitempty"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	Github         string    `json:"github,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Employer struct {
	ID        string    `json:"employerId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}
