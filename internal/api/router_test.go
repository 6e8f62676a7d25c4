package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/app/scoring"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common/security"
	"vgp_platform/internal/domain/repository/memory"
)

const tinyBank = `{
  "tracks": [{"trackId": "t1", "name": "Tiny", "questionBudget": 2, "durationSeconds": 600}],
  "questions": [
    {"questionId": "q1", "trackId": "t1", "questionType": "mcq", "difficulty": "medium", "topic": "a",
     "subskill": "algorithms", "prompt": "one", "options": ["x", "y"], "answer": "x"},
    {"questionId": "q2", "trackId": "t1", "questionType": "mcq", "difficulty": "hard", "topic": "b",
     "subskill": "algorithms", "prompt": "two", "options": ["x", "y"], "answer": "x"}
  ]
}`

func TestMain(m *testing.M) {
	security.InitJWT([]byte("router-secret"), time.Hour)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hash, err := security.HashPassword("pw")
	require.NoError(t, err)

	svc := service.New(memory.New(), service.Options{
		Scoring:       scoring.DefaultConfig(),
		BankDefaults:  bank.Defaults{QuestionBudget: 10, DurationSeconds: 1800},
		AdminUser:     "admin",
		AdminPassHash: hash,
	})
	srv := httptest.NewServer(NewRouter(svc, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)
	return srv
}

// call performs a request and decodes the "data" member of the envelope
// into out when out is non-nil.
func call(t *testing.T, srv *httptest.Server, method, path, token, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		var env struct {
			Data    json.RawMessage `json:"data"`
			TraceID string          `json:"traceId"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.NotEmpty(t, env.TraceID)
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func TestFullCandidateFlow(t *testing.T) {
	srv := newTestServer(t)

	var admin service.AuthResponse
	require.Equal(t, http.StatusOK, call(t, srv, "POST", "/api/v1/auth/admin/login", "", `{"username":"admin","password":"pw"}`, &admin))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "POST", "/api/v1/auth/admin/login", "", `{"username":"admin","password":"no"}`, nil))

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "POST", "/api/v1/admin/tracks", "", tinyBank, nil))
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/admin/tracks", admin.Token, tinyBank, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, "POST", "/api/v1/admin/questions", admin.Token, `{"questions":[{"questionId":"z"}]}`, nil))

	var emp service.IdentityResponse
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/employers", "", `{"name":"TechCorp Inc"}`, &emp))
	var cand service.IdentityResponse
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/candidates", "",
		`{"name":"Alice","email":"alice@example.com","graduationYear":2025}`, &cand))

	assert.Equal(t, http.StatusForbidden, call(t, srv, "GET", "/api/v1/candidates/"+emp.EmployerID, cand.Token, "", nil))
	assert.Equal(t, http.StatusForbidden, call(t, srv, "POST", "/api/v1/admin/tracks", cand.Token, tinyBank, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, "POST", "/api/v1/candidates/"+cand.CandidateID+"/tracks", cand.Token, `{"track":"t1"}`, nil))

	var started service.StartSessionResponse
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/candidates/"+cand.CandidateID+"/tracks", cand.Token, `{"trackId":"t1"}`, &started))
	assert.Equal(t, http.StatusConflict, call(t, srv, "POST", "/api/v1/candidates/"+cand.CandidateID+"/tracks", cand.Token, `{"trackId":"t1"}`, nil))

	base := "/api/v1/tests/" + started.SessionID
	for i := 0; i < 2; i++ {
		var next service.NextQuestionResponse
		require.Equal(t, http.StatusOK, call(t, srv, "GET", base+"/next", cand.Token, "", &next))
		require.NotNil(t, next.Question)
		body := `{"questionId":"` + next.Question.QuestionID + `","responseType":"mcq","answer":"x","timeTakenSeconds":20}`
		var ack service.RecordResponseAck
		require.Equal(t, http.StatusCreated, call(t, srv, "POST", base+"/responses", cand.Token, body, &ack))
		assert.Equal(t, "recorded", ack.Status)
		assert.Equal(t, http.StatusConflict, call(t, srv, "POST", base+"/responses", cand.Token, body, nil))
	}
	var done service.NextQuestionResponse
	require.Equal(t, http.StatusOK, call(t, srv, "GET", base+"/next", cand.Token, "", &done))
	assert.True(t, done.Done)
	assert.Nil(t, done.Question)

	var report struct {
		OverallScore int            `json:"overallScore"`
		Subscores    map[string]int `json:"subscores"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, "POST", base+"/submit", cand.Token, "", &report))
	assert.Equal(t, 100, report.OverallScore)
	assert.Equal(t, map[string]int{"algorithms": 100}, report.Subscores)

	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/candidates/"+cand.CandidateID+"/scores/t1", cand.Token, "", &report))
	assert.Equal(t, 100, report.OverallScore)

	var job service.JobResponse
	assert.Equal(t, http.StatusForbidden, call(t, srv, "POST", "/api/v1/employers/"+emp.EmployerID+"/jobs", cand.Token,
		`{"requiredTracks":["t1"],"minScores":{"t1":70}}`, nil))
	require.Equal(t, http.StatusOK, call(t, srv, "POST", "/api/v1/employers/"+emp.EmployerID+"/jobs", emp.Token,
		`{"jobId":"job_001","requiredTracks":["t1"],"minScores":{"t1":70}}`, &job))
	assert.Equal(t, "job_001", job.JobID)

	var eligible service.EligibleResponse
	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/employers/"+emp.EmployerID+"/jobs/job_001/eligible", emp.Token, "", &eligible))
	assert.Empty(t, eligible.EligibleCandidates, "no consent yet")

	var shared service.ShareResponse
	require.Equal(t, http.StatusOK, call(t, srv, "POST", "/api/v1/candidates/"+cand.CandidateID+"/share", cand.Token,
		`{"employerId":"`+emp.EmployerID+`"}`, &shared))
	assert.Equal(t, []string{emp.EmployerID}, shared.SharedWith)

	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/employers/"+emp.EmployerID+"/jobs/job_001/eligible", emp.Token, "", &eligible))
	require.Len(t, eligible.EligibleCandidates, 1)
	assert.Equal(t, 100, eligible.EligibleCandidates[0].MatchScore)
	assert.Equal(t, "Scored 100 vs required 70 on t1", eligible.EligibleCandidates[0].MatchExplanation)

	var recs service.RecommendationsResponse
	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/candidates/"+cand.CandidateID+"/matches", cand.Token, "", &recs))
	require.Len(t, recs.RecommendedJobs, 1)
	assert.Equal(t, "TechCorp Inc", recs.RecommendedJobs[0].Company)

	var stats struct {
		Total int `json:"total"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/admin/item-bank-stats", admin.Token, "", &stats))
	assert.Equal(t, 2, stats.Total)

	var events []struct {
		EventType string `json:"eventType"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/admin/trace?limit=5", admin.Token, "", &events))
	assert.Len(t, events, 5)
}

func TestSessionOfAnotherCandidateIsHidden(t *testing.T) {
	srv := newTestServer(t)

	var admin service.AuthResponse
	require.Equal(t, http.StatusOK, call(t, srv, "POST", "/api/v1/auth/admin/login", "", `{"username":"admin","password":"pw"}`, &admin))
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/admin/tracks", admin.Token, tinyBank, nil))

	var a, b service.IdentityResponse
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/candidates", "", `{"name":"A","email":"a@example.com"}`, &a))
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/candidates", "", `{"name":"B","email":"b@example.com"}`, &b))

	var started service.StartSessionResponse
	require.Equal(t, http.StatusCreated, call(t, srv, "POST", "/api/v1/candidates/"+a.CandidateID+"/tracks", a.Token, `{"trackId":"t1"}`, &started))

	assert.Equal(t, http.StatusNotFound, call(t, srv, "GET", "/api/v1/tests/"+started.SessionID+"/next", b.Token, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, "POST", "/api/v1/tests/"+started.SessionID+"/submit", b.Token, "", nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "GET", "/api/v1/tests/"+started.SessionID+"/next", "", "", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, srv, "POST", "/api/v1/tests/"+started.SessionID+"/submit", a.Token, "", nil))
}

func TestTracksArePublic(t *testing.T) {
	srv := newTestServer(t)
	var tracks []map[string]interface{}
	require.Equal(t, http.StatusOK, call(t, srv, "GET", "/api/v1/tracks", "", "", &tracks))
	assert.Empty(t, tracks)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
