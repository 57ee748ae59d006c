// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package interview_routers

import (
	"github.com/gin-gonic/gin"
	healthCheckApi "github.com/rapidaai/interview/api/interview-api/api/health"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, upstream healthCheckApi.Pinger, conns ...connectors.Connector) {
	logger.Infof("router: health routes watching %d connectors", len(conns))
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, upstream, conns...)
	{
		apiv1.GET("/health", hcApi.Healthz)
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
