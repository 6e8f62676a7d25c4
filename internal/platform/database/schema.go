package database

// Timestamps are unix seconds. JSON columns hold small lists and maps that are
// only ever read back whole.
const commonSchema = `
CREATE TABLE IF NOT EXISTS candidates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    education_level TEXT NOT NULL DEFAULT '',
    graduation_year INTEGER NOT NULL DEFAULT 0,
    github TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS employers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS tracks (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    question_budget INTEGER NOT NULL,
    duration_seconds INTEGER NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    track_id TEXT NOT NULL REFERENCES tracks(id),
    question_type TEXT NOT NULL,
    band TEXT NOT NULL,
    topic TEXT NOT NULL,
    category TEXT NOT NULL,
    prompt TEXT NOT NULL,
    options_json TEXT NOT NULL DEFAULT 'null',
    answer_key TEXT NOT NULL DEFAULT '',
    rubric_json TEXT NOT NULL DEFAULT '{}',
    time_limit_seconds INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_questions_track ON questions(track_id, band);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidates(id),
    track_id TEXT NOT NULL REFERENCES tracks(id),
    state TEXT NOT NULL,
    current_band TEXT NOT NULL,
    served_json TEXT NOT NULL DEFAULT '[]',
    topics_json TEXT NOT NULL DEFAULT '{}',
    created_at BIGINT NOT NULL,
    expires_at BIGINT NOT NULL,
    first_question_at BIGINT,
    finalized_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_sessions_candidate_track ON sessions(candidate_id, track_id, state);

CREATE TABLE IF NOT EXISTS responses (
    session_id TEXT NOT NULL REFERENCES sessions(id),
    question_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    response_type TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    code TEXT NOT NULL DEFAULT '',
    time_taken_seconds INTEGER NOT NULL DEFAULT 0,
    copied_characters INTEGER NOT NULL DEFAULT 0,
    recorded_at BIGINT NOT NULL,
    PRIMARY KEY (session_id, question_id)
);

CREATE TABLE IF NOT EXISTS score_distribution (
    track_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    PRIMARY KEY (track_id, session_id)
);

CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    employer_id TEXT NOT NULL REFERENCES employers(id),
    title TEXT NOT NULL DEFAULT '',
    required_tracks_json TEXT NOT NULL,
    min_scores_json TEXT NOT NULL,
    subscores_json TEXT NOT NULL DEFAULT 'null',
    created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs(employer_id);

CREATE TABLE IF NOT EXISTS consent_grants (
    candidate_id TEXT NOT NULL REFERENCES candidates(id),
    employer_id TEXT NOT NULL REFERENCES employers(id),
    granted_at BIGINT NOT NULL,
    PRIMARY KEY (candidate_id, employer_id)
);
CREATE INDEX IF NOT EXISTS idx_consent_employer ON consent_grants(employer_id);
`

// score_reports.seq orders reports by insertion; completed_at only has
// second resolution.
const postgresSchema = commonSchema + `
CREATE TABLE IF NOT EXISTS score_reports (
    seq BIGSERIAL UNIQUE,
    session_id TEXT PRIMARY KEY REFERENCES sessions(id),
    candidate_id TEXT NOT NULL,
    track_id TEXT NOT NULL,
    overall_score INTEGER NOT NULL,
    subscores_json TEXT NOT NULL,
    percentile INTEGER NOT NULL,
    strengths_json TEXT NOT NULL,
    weaknesses_json TEXT NOT NULL,
    flags_json TEXT NOT NULL,
    completed_at BIGINT NOT NULL
);
ALTER TABLE score_reports ADD COLUMN IF NOT EXISTS seq BIGSERIAL UNIQUE;
CREATE INDEX IF NOT EXISTS idx_reports_candidate_track ON score_reports(candidate_id, track_id, seq);

CREATE TABLE IF NOT EXISTS trace_events (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    event_type TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    payload_json TEXT NOT NULL,
    created_at BIGINT NOT NULL
);
`

const sqliteSchema = `PRAGMA foreign_keys = ON;
` + commonSchema + `
CREATE TABLE IF NOT EXISTS score_reports (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL UNIQUE REFERENCES sessions(id),
    candidate_id TEXT NOT NULL,
    track_id TEXT NOT NULL,
    overall_score INTEGER NOT NULL,
    subscores_json TEXT NOT NULL,
    percentile INTEGER NOT NULL,
    strengths_json TEXT NOT NULL,
    weaknesses_json TEXT NOT NULL,
    flags_json TEXT NOT NULL,
    completed_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_candidate_track ON score_reports(candidate_id, track_id, seq);

CREATE TABLE IF NOT EXISTS trace_events (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    event_type TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    payload_json TEXT NOT NULL,
    created_at BIGINT NOT NULL
);
`
