package service

import (
	"time"

	"github.com/redis/go-redis/v9"

	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/app/scoring"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/platform/lock"
)

// Services is the full application graph shared by the API server and the
// operator CLI.
type Services struct {
	Auth       *AuthService
	Candidates *CandidateService
	Employers  *EmployerService
	Consent    *ConsentService
	Matches    *MatchService
	Sessions   *SessionService
	Bank       *QuestionBankService
	Trace      *TraceService
}

type Options struct {
	Scoring         scoring.Config
	BankDefaults    bank.Defaults
	SessionDuration time.Duration
	LockTimeout     time.Duration
	Locker          lock.Locker
	// TraceQueue routes trace events through Redis when RDB is set.
	RDB           *redis.Client
	TraceQueue    string
	AdminUser     string
	AdminPassHash string
}

func New(set *repository.Set, opts Options) *Services {
	if opts.Locker == nil {
		opts.Locker = lock.NewKeyedMutex()
	}
	trace := NewTraceService(set.Traces, opts.RDB, opts.TraceQueue)
	consent := NewConsentService(set.Consents, set.Candidates, set.Employers, trace)
	return &Services{
		Auth:       NewAuthService(opts.AdminUser, opts.AdminPassHash),
		Candidates: NewCandidateService(set.Candidates, set.Consents, trace),
		Employers:  NewEmployerService(set.Employers, set.Jobs, set.Tracks, trace),
		Consent:    consent,
		Matches:    NewMatchService(set.Jobs, set.Employers, set.Candidates, set.Reports, set.Consents, consent, trace),
		Sessions: NewSessionService(SessionStores{
			Sessions:     set.Sessions,
			Responses:    set.Responses,
			Reports:      set.Reports,
			Tracks:       set.Tracks,
			Candidates:   set.Candidates,
			Distribution: set.Distribution,
		}, SessionConfig{
			Scoring:         opts.Scoring,
			DefaultDuration: opts.SessionDuration,
			LockTimeout:     opts.LockTimeout,
		}, opts.Locker, trace),
		Bank:  NewQuestionBankService(set.Tracks, opts.BankDefaults, trace),
		Trace: trace,
	}
}
