// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package interview_api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
)

// ResultSource answers results for sessions this process no longer holds.
type ResultSource interface {
	Results(ctx context.Context, sessionID string) (types.InterviewResults, error)
}

type interviewApi struct {
	cfg     *config.AppConfig
	logger  commons.Logger
	manager internal_interview.Manager
	store   internal_history.Store
	remote  ResultSource
}

type startRequest struct {
	types.InterviewSetup
	Policy map[string]interface{} `json:"policy"`
}

func NewInterviewApi(cfg *config.AppConfig, logger commons.Logger, manager internal_interview.Manager, store internal_history.Store, remote ResultSource) *interviewApi {
	return &interviewApi{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		store:   store,
		remote:  remote,
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNoAnswers):
		return http.StatusConflict
	case errors.Is(err, types.ErrScoring), errors.Is(err, types.ErrSynthesis), errors.Is(err, types.ErrTranscription):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (api *interviewApi) Config(c *gin.Context) {
	c.JSON(http.StatusOK, api.manager.Config())
}

func (api *interviewApi) StartInterview(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	interview, err := api.manager.Start(c.Request.Context(), req.InterviewSetup, req.Policy)
	if err != nil {
		api.logger.Errorf("interview api: unable to start interview: %v", err)
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, interview.Session())
}

// Snapshot reports the state of the question being asked.
func (api *interviewApi) Snapshot(c *gin.Context) {
	interview, err := api.manager.Get(c.Param("sessionId"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"session":   interview.Session(),
		"answered":  len(interview.Answers()),
		"completed": interview.IsCompleted(),
	}
	if current := interview.Current(); current != nil {
		resp["question"] = current.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

func (api *interviewApi) Results(c *gin.Context) {
	sessionID := c.Param("sessionId")
	interview, err := api.manager.Get(sessionID)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) && api.remote != nil {
			results, rerr := api.remote.Results(c.Request.Context(), sessionID)
			if rerr == nil {
				c.JSON(http.StatusOK, results)
				return
			}
			api.logger.Debugf("interview api: remote results for %s: %v", sessionID, rerr)
		}
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	results, err := interview.Results()
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// Finish forgets a session held in memory.
func (api *interviewApi) Finish(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if _, err := api.manager.Get(sessionID); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	api.manager.Remove(sessionID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *interviewApi) ListInterviews(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}
	interviews, err := api.store.List(c.Request.Context(), limit)
	if err != nil {
		api.logger.Errorf("interview api: list interviews: %v", err)
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (api *interviewApi) GetInterview(c *gin.Context) {
	details, err := api.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, details)
}
