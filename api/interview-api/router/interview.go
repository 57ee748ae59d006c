// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package interview_routers

import (
	"github.com/gin-gonic/gin"
	interviewApi "github.com/rapidaai/interview/api/interview-api/api/interview"
	talkApi "github.com/rapidaai/interview/api/interview-api/api/talk"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
)

func InterviewApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	manager internal_interview.Manager,
	store internal_history.Store,
	remote interviewApi.ResultSource,
) {
	apiv1 := engine.Group("v1")
	api := interviewApi.NewInterviewApi(cfg, logger, manager, store, remote)
	{
		apiv1.GET("/config", api.Config)
		apiv1.POST("/interview/start", api.StartInterview)
		apiv1.GET("/interview/:sessionId", api.Snapshot)
		apiv1.GET("/interview/:sessionId/results", api.Results)
		apiv1.DELETE("/interview/:sessionId", api.Finish)
		apiv1.GET("/interviews", api.ListInterviews)
		apiv1.GET("/interviews/:id", api.GetInterview)
	}
}

func TalkApiRoute(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, manager internal_interview.Manager) {
	apiv1 := engine.Group("v1/interview")
	api := talkApi.NewTalkApi(cfg, logger, manager)
	{
		apiv1.GET("/:sessionId/talk", api.Talk)
	}
}
