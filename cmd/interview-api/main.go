// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	healthCheckApi "github.com/rapidaai/interview/api/interview-api/api/health"
	interviewApi "github.com/rapidaai/interview/api/interview-api/api/interview"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	internal_synthesizes "github.com/rapidaai/interview/api/interview-api/internal/synthesizes"
	internal_transformer_openai "github.com/rapidaai/interview/api/interview-api/internal/transformer/openai"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	interview_routers "github.com/rapidaai/interview/api/interview-api/router"
	"github.com/rapidaai/interview/config"
	interview_client "github.com/rapidaai/interview/pkg/clients/interview"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
	"github.com/rapidaai/interview/pkg/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type application struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	engine   *gin.Engine
	postgres connectors.DatabaseConnector
	redis    connectors.RedisConnector
}

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to read config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("illegal application config: %v", err)
	}
	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Level(cfg.LogLevel),
		commons.Path(cfg.LogPath),
	)
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{cfg: cfg, logger: logger}
	if err := app.run(ctx); err != nil {
		logger.Errorf("interview-api: stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("interview-api: stopped")
}

func (app *application) connect(ctx context.Context) error {
	app.postgres = connectors.NewDatabaseConnector(&app.cfg.Database, app.logger)
	if err := app.postgres.Connect(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if utils.IsEmpty(app.cfg.Redis.Host) {
		app.logger.Info("interview-api: redis not configured, synthesized prompts are not cached")
		return nil
	}
	app.redis = connectors.NewRedisConnector(&app.cfg.Redis, app.logger)
	if err := app.redis.Connect(ctx); err != nil {
		// the cache is an optimisation, run without it
		app.logger.Warnf("interview-api: redis unavailable, continuing without cache: %v", err)
		app.redis = nil
	}
	return nil
}

func (app *application) run(ctx context.Context) error {
	if err := app.connect(ctx); err != nil {
		return err
	}
	defer app.disconnect()

	store := internal_history.NewStore(app.postgres, app.logger)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var (
		provider internal_type.Provider
		backend  interview_client.InterviewServiceClient
		upstream healthCheckApi.Pinger
		remote   interviewApi.ResultSource
	)
	opts := []internal_interview.Option{internal_interview.WithStore(store)}
	switch app.cfg.Provider {
	case "openai":
		provider = internal_transformer_openai.NewOpenAIProvider(app.logger, app.cfg)
	default:
		backend = interview_client.NewInterviewServiceClient(app.cfg, app.logger)
		provider, upstream, remote = backend, backend, backend
		opts = append(opts, internal_interview.WithArchiver(backend))
	}

	var cache *redis.Client
	if app.redis != nil {
		cache = app.redis.GetConnection()
	}
	opts = append(opts, internal_interview.WithSynthesizer(
		internal_synthesizes.NewCachedSynthesizer(app.logger, provider, cache, time.Duration(app.cfg.Redis.AudioTTL)*time.Second),
	))

	manager, err := internal_interview.NewManager(app.logger, provider, app.cfg.Policy, opts...)
	if err != nil {
		return err
	}

	if utils.FromEnvironmentStr(app.cfg.Environment) == utils.PRODUCTION {
		gin.SetMode(gin.ReleaseMode)
	}
	app.engine = gin.New()
	app.engine.Use(gin.Recovery())
	app.engine.Use(cors.New(cors.Config{
		AllowOrigins:     app.cfg.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.HEADER_API_KEY, utils.HEADER_SOURCE_KEY},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	conns := []connectors.Connector{app.postgres}
	if app.redis != nil {
		conns = append(conns, app.redis)
	}
	interview_routers.HealthCheckRoutes(app.cfg, app.engine, app.logger, upstream, conns...)
	interview_routers.InterviewApiRoute(app.cfg, app.engine, app.logger, manager, store, remote)
	interview_routers.TalkApiRoute(app.cfg, app.engine, app.logger, manager)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.cfg.Host, app.cfg.Port),
		Handler: app.engine,
	}

	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		app.logger.Infof("interview-api: listening on %s using the %s provider", server.Addr, app.cfg.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gCtx.Done()
		app.logger.Info("interview-api: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (app *application) disconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if app.redis != nil {
		if err := app.redis.Disconnect(ctx); err != nil {
			app.logger.Warnf("interview-api: redis disconnect: %v", err)
		}
	}
	if err := app.postgres.Disconnect(ctx); err != nil {
		app.logger.Warnf("interview-api: database disconnect: %v", err)
	}
}
