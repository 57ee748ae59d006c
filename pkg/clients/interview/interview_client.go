// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package interview_client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
)

const apiPrefix = "/api/v1"

// InterviewServiceClient talks to the interview REST backend that owns
// question generation, speech services and scoring.
type InterviewServiceClient interface {
	StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error)
	NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error)
	SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Results(ctx context.Context, sessionID string) (types.InterviewResults, error)
	SaveInterview(ctx context.Context, sessionID string) (string, error)
	Config(ctx context.Context) (types.ServiceConfig, error)
	Health(ctx context.Context) error
}

type interviewServiceClient struct {
	logger commons.Logger
	client *resty.Client
}

// apiError is the error body the backend returns.
type apiError struct {
	Detail string `json:"detail"`
}

type audioResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
	Error   string `json:"error"`
}

func NewInterviewServiceClient(cfg *config.AppConfig, logger commons.Logger) InterviewServiceClient {
	client := resty.New().
		SetBaseURL(cfg.Backend.Url).
		SetTimeout(time.Duration(cfg.Backend.Timeout)*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader(utils.HEADER_SOURCE_KEY, cfg.Name).
		SetHeader(utils.HEADER_ENVIRONMENT_KEY, utils.FromEnvironmentStr(cfg.Environment).Get())
	if !utils.IsEmpty(cfg.Backend.ApiKey) {
		client.SetHeader(utils.HEADER_API_KEY, cfg.Backend.ApiKey)
	}
	return &interviewServiceClient{
		logger: logger,
		client: client,
	}
}

func (c *interviewServiceClient) request(ctx context.Context) *resty.Request {
	return c.client.R().
		SetContext(ctx).
		SetHeader(utils.HEADER_REQUEST_ID_KEY, uuid.NewString()).
		SetError(&apiError{})
}

// sessionRequest tags the request with the interview it belongs to.
func (c *interviewServiceClient) sessionRequest(ctx context.Context, sessionID string) *resty.Request {
	return c.request(ctx).SetHeader(utils.HEADER_SESSION_KEY, sessionID)
}

// check converts transport failures and non-2xx answers into one error.
func (c *interviewServiceClient) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Errorf("interview client: %s failed: %v", op, err)
		return fmt.Errorf("interview client: %s: %w", op, err)
	}
	if resp.IsError() {
		detail := resp.Status()
		if e, ok := resp.Error().(*apiError); ok && !utils.IsEmpty(e.Detail) {
			detail = e.Detail
		}
		c.logger.Errorf("interview client: %s returned %d: %s", op, resp.StatusCode(), detail)
		return fmt.Errorf("interview client: %s: status %d: %s", op, resp.StatusCode(), detail)
	}
	c.logger.Benchmark("interviewClient."+op, resp.Time())
	return nil
}

func (c *interviewServiceClient) StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error) {
	var session types.InterviewSession
	resp, err := c.request(ctx).
		SetBody(setup).
		SetResult(&session).
		Post(apiPrefix + "/interview/start")
	if err := c.check("start interview", resp, err); err != nil {
		return types.InterviewSession{}, err
	}
	return session, nil
}

func (c *interviewServiceClient) NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error) {
	var question types.Question
	resp, err := c.sessionRequest(ctx, sessionID).
		SetBody(map[string]interface{}{
			"session_id":      sessionID,
			"question_number": number,
		}).
		SetResult(&question).
		Post(apiPrefix + "/interview/question")
	if err := c.check("next question", resp, err); err != nil {
		return types.Question{}, err
	}
	return question, nil
}

func (c *interviewServiceClient) SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error) {
	var evaluation types.AnswerEvaluation
	resp, err := c.sessionRequest(ctx, submission.SessionID).
		SetBody(submission).
		SetResult(&evaluation).
		Post(apiPrefix + "/interview/answer")
	if err := c.check("submit answer", resp, err); err != nil {
		return types.AnswerEvaluation{}, fmt.Errorf("%w: %v", types.ErrScoring, err)
	}
	return evaluation, nil
}

// Synthesize returns the encoded audio clip exactly as the backend sent it.
func (c *interviewServiceClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.request(ctx).
		SetBody(map[string]string{"text": text}).
		Post(apiPrefix + "/audio/tts")
	if err := c.check("synthesize", resp, err); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSynthesis, err)
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("%w: empty audio", types.ErrSynthesis)
	}
	return resp.Body(), nil
}

// Transcribe uploads the audio as multipart field "audio". Empty audio is
// not worth a round trip and transcribes to nothing.
func (c *interviewServiceClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	var result audioResponse
	resp, err := c.request(ctx).
		SetFileReader("audio", "audio.wav", bytes.NewReader(audio)).
		SetResult(&result).
		Post(apiPrefix + "/audio/stt")
	if err := c.check("transcribe", resp, err); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrTranscription, err)
	}
	if !result.Success {
		return "", fmt.Errorf("%w: %s", types.ErrTranscription, result.Error)
	}
	return result.Data, nil
}

func (c *interviewServiceClient) Results(ctx context.Context, sessionID string) (types.InterviewResults, error) {
	var results types.InterviewResults
	resp, err := c.sessionRequest(ctx, sessionID).
		SetPathParam("sessionId", sessionID).
		SetResult(&results).
		Get(apiPrefix + "/interview/results/{sessionId}")
	if err := c.check("results", resp, err); err != nil {
		return types.InterviewResults{}, err
	}
	return results, nil
}

// SaveInterview persists the session on the backend and returns the interview id.
func (c *interviewServiceClient) SaveInterview(ctx context.Context, sessionID string) (string, error) {
	var saved struct {
		InterviewID string `json:"interview_id"`
		Success     bool   `json:"success"`
	}
	resp, err := c.sessionRequest(ctx, sessionID).
		SetPathParam("sessionId", sessionID).
		SetResult(&saved).
		Post(apiPrefix + "/interview/save/{sessionId}")
	if err := c.check("save interview", resp, err); err != nil {
		return "", err
	}
	if !saved.Success {
		return "", fmt.Errorf("interview client: save interview: backend reported failure")
	}
	return saved.InterviewID, nil
}

func (c *interviewServiceClient) Config(ctx context.Context) (types.ServiceConfig, error) {
	var cfg types.ServiceConfig
	resp, err := c.request(ctx).
		SetResult(&cfg).
		Get(apiPrefix + "/config")
	if err := c.check("config", resp, err); err != nil {
		return types.ServiceConfig{}, err
	}
	return cfg, nil
}

func (c *interviewServiceClient) Health(ctx context.Context) error {
	resp, err := c.request(ctx).Get("/health")
	return c.check("health", resp, err)
}
