// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package interview_talk_api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_websocket "github.com/rapidaai/interview/api/interview-api/internal/channel/websocket"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
)

var talkUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type talkApi struct {
	cfg     *config.AppConfig
	logger  commons.Logger
	manager internal_interview.Manager
}

func NewTalkApi(cfg *config.AppConfig, logger commons.Logger, manager internal_interview.Manager) *talkApi {
	return &talkApi{cfg: cfg, logger: logger, manager: manager}
}

// Talk runs the interview over a websocket.
//
// @Router /v1/interview/:sessionId/talk [get]
// @Param sessionId path string true "Session ID"
// @Param format query string false "microphone format: linear16 (default) or container"
// @Success 101 "Switching Protocols"
// @Failure 404 {object} gin.H
func (api *talkApi) Talk(c *gin.Context) {
	interview, err := api.manager.Get(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	input := internal_audio.INTERVIEW_AUDIO_CONFIG
	if c.Query("format") == string(internal_audio.Container) {
		input = &internal_audio.AudioConfig{Format: internal_audio.Container}
	}

	conn, err := talkUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Errorf("talk api: websocket upgrade failed: %v", err)
		return
	}
	api.logger.Infof("talk api: candidate connected to session %s", interview.SessionID())

	streamer := internal_websocket.NewStreamer(api.logger, conn, internal_websocket.WithInputConfig(input))
	// the request context ends with the upgrade, the interview must outlive it
	if err := internal_websocket.Talk(context.Background(), api.logger, streamer, interview); err != nil {
		api.logger.Warnf("talk api: session %s: %v", interview.SessionID(), err)
	}
}
