package repository

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
)

// Set bundles one instance of every store the services need.
type Set struct {
	Candidates   CandidateRepository
	Employers    EmployerRepository
	Tracks       TrackRepository
	Sessions     SessionRepository
	Responses    ResponseRepository
	Reports      ReportRepository
	Distribution ScoreDistribution
	Jobs         JobRepository
	Consents     ConsentRepository
	Traces       TraceRepository
}

// NewSQLSet builds every store over db. A non-nil rdb moves the score
// distribution into a Redis sorted set shared by all replicas.
func NewSQLSet(db *sql.DB, rdb *redis.Client) *Set {
	set := &Set{
		Candidates:   NewSQLCandidateRepository(db),
		Employers:    NewSQLEmployerRepository(db),
		Tracks:       NewSQLTrackRepository(db),
		Sessions:     NewSQLSessionRepository(db),
		Responses:    NewSQLResponseRepository(db),
		Reports:      NewSQLReportRepository(db),
		Distribution: NewSQLScoreDistribution(db),
		Jobs:         NewSQLJobRepository(db),
		Consents:     NewSQLConsentRepository(db),
		Traces:       NewSQLTraceRepository(db),
	}
	if rdb != nil {
		set.Distribution = NewRedisScoreDistribution(rdb, "")
	}
	return set
}
