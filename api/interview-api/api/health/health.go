// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package health_check_api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
)

// Pinger is any dependency whose reachability decides readiness.
type Pinger interface {
	Health(ctx context.Context) error
}

type healthCheckApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	connectors []connectors.Connector
	upstream   Pinger
}

func New(cfg *config.AppConfig, logger commons.Logger, upstream Pinger, conns ...connectors.Connector) *healthCheckApi {
	return &healthCheckApi{
		cfg:        cfg,
		logger:     logger,
		connectors: conns,
		upstream:   upstream,
	}
}

func (h *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": h.cfg.Name, "version": h.cfg.Version})
}

func (h *healthCheckApi) Readiness(c *gin.Context) {
	checks := gin.H{}
	ready := true
	for _, conn := range h.connectors {
		ok := conn.IsConnected(c.Request.Context())
		checks[conn.Name()] = ok
		ready = ready && ok
	}
	if h.upstream != nil {
		err := h.upstream.Health(c.Request.Context())
		checks["backend"] = err == nil
		if err != nil {
			h.logger.Warnf("health: backend unreachable: %v", err)
			ready = false
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": checks})
}
