// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package interview_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error) {
	return types.InterviewSession{SessionID: "s-" + setup.CandidateName, FirstQuestion: "Why Go?", TotalQuestions: 3}, nil
}

func (stubProvider) NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error) {
	return types.Question{QuestionNumber: number, QuestionText: fmt.Sprintf("question %d", number)}, nil
}

func (stubProvider) SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error) {
	return types.AnswerEvaluation{Score: 8, Feedback: "ok"}, nil
}

func (stubProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("clip"), nil
}

func (stubProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "answer", nil
}

type stubResults struct {
	results types.InterviewResults
	err     error
}

func (s stubResults) Results(ctx context.Context, sessionID string) (types.InterviewResults, error) {
	if s.err != nil {
		return types.InterviewResults{}, s.err
	}
	r := s.results
	r.SessionID = sessionID
	return r, nil
}

type testServer struct {
	engine  *gin.Engine
	manager internal_interview.Manager
	store   internal_history.Store
}

func newTestServer(t *testing.T, remote ResultSource) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := commons.NewNopLogger()

	conn := connectors.NewDatabaseConnector(&config.DatabaseConfig{
		Driver:            "sqlite",
		Dsn:               fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConnection: 1,
	}, logger)
	require.NoError(t, conn.Connect(ctx))
	t.Cleanup(func() { _ = conn.Disconnect(ctx) })
	store := internal_history.NewStore(conn, logger)
	require.NoError(t, store.Migrate(ctx))

	manager, err := internal_interview.NewManager(logger, stubProvider{}, config.DefaultPolicy(), internal_interview.WithStore(store))
	require.NoError(t, err)

	engine := gin.New()
	api := NewInterviewApi(&config.AppConfig{}, logger, manager, store, remote)
	engine.GET("/v1/config", api.Config)
	engine.POST("/v1/interview/start", api.StartInterview)
	engine.GET("/v1/interview/:sessionId", api.Snapshot)
	engine.GET("/v1/interview/:sessionId/results", api.Results)
	engine.DELETE("/v1/interview/:sessionId", api.Finish)
	engine.GET("/v1/interviews", api.ListInterviews)
	engine.GET("/v1/interviews/:id", api.GetInterview)
	return &testServer{engine: engine, manager: manager, store: store}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

var validSetup = map[string]interface{}{
	"candidate_name": "ada",
	"job_title":      "Engineer",
	"interview_type": "technical",
}

func TestConfig(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg types.ServiceConfig
	decode(t, w, &cfg)
	assert.Equal(t, internal_interview.ServiceConfigOf(config.DefaultPolicy()), cfg)
}

func TestStartInterview(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodPost, "/v1/interview/start", validSetup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session types.InterviewSession
	decode(t, w, &session)
	assert.Equal(t, "s-ada", session.SessionID)
	assert.Equal(t, "Why Go?", session.FirstQuestion)

	_, err := s.manager.Get("s-ada")
	assert.NoError(t, err)

	w = s.do(http.MethodGet, "/v1/interviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Interviews []types.Interview `json:"interviews"`
	}
	decode(t, w, &listed)
	require.Len(t, listed.Interviews, 1)
	assert.Equal(t, "ada", listed.Interviews[0].CandidateName)

	w = s.do(http.MethodGet, "/v1/interviews/"+listed.Interviews[0].ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartInterview_WithPolicyOverrides(t *testing.T) {
	s := newTestServer(t, nil)
	body := map[string]interface{}{
		"candidate_name": "grace",
		"job_title":      "Engineer",
		"interview_type": "hr",
		"policy":         map[string]interface{}{"max_repeats": 0},
	}
	w := s.do(http.MethodPost, "/v1/interview/start", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	interview, err := s.manager.Get("s-grace")
	require.NoError(t, err)
	assert.Equal(t, 0, interview.Policy().MaxRepeats)
}

func TestStartInterview_Rejected(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/v1/interview/start", map[string]interface{}{"candidate_name": "ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/interview/start", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshot(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/interview/start", validSetup).Code)

	w := s.do(http.MethodGet, "/v1/interview/s-ada", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, float64(0), body["answered"])
	assert.Equal(t, false, body["completed"])
	assert.NotContains(t, body, "question", "no question is asked before the candidate connects")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/interview/unknown", nil).Code)
}

func TestResults(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/interview/start", validSetup).Code)

	w := s.do(http.MethodGet, "/v1/interview/s-ada/results", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "nothing answered yet")

	w = s.do(http.MethodGet, "/v1/interview/unknown/results", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResults_FallsBackToRemote(t *testing.T) {
	s := newTestServer(t, stubResults{results: types.InterviewResults{FinalScore: 7.5, Percentage: 75}})

	w := s.do(http.MethodGet, "/v1/interview/finished/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results types.InterviewResults
	decode(t, w, &results)
	assert.Equal(t, "finished", results.SessionID)
	assert.Equal(t, 75.0, results.Percentage)

	s = newTestServer(t, stubResults{err: fmt.Errorf("gone")})
	w = s.do(http.MethodGet, "/v1/interview/finished/results", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinish(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/interview/start", validSetup).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/v1/interview/s-ada", nil).Code)
	_, err := s.manager.Get("s-ada")
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/v1/interview/s-ada", nil).Code)
}

func TestListInterviews_Limit(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.store.Save(ctx,
			types.InterviewSession{SessionID: fmt.Sprintf("s%d", i), TotalQuestions: 3},
			types.InterviewSetup{CandidateName: fmt.Sprintf("c%d", i), JobTitle: "j", InterviewType: types.InterviewTypeHR},
			start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	w := s.do(http.MethodGet, "/v1/interviews?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Interviews []types.Interview `json:"interviews"`
	}
	decode(t, w, &listed)
	require.Len(t, listed.Interviews, 2)
	assert.Equal(t, "c2", listed.Interviews[0].CandidateName)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/interviews?limit=x", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/interviews/missing", nil).Code)
}
