// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"

	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/redis/go-redis/v9"
)

type RedisConnector interface {
	Connector
	GetConnection() *redis.Client
}

type redisConnector struct {
	cfg    *config.RedisConfig
	logger commons.Logger
	client *redis.Client
}

func NewRedisConnector(cfg *config.RedisConfig, logger commons.Logger) RedisConnector {
	return &redisConnector{cfg: cfg, logger: logger}
}

func (c *redisConnector) Name() string {
	return fmt.Sprintf("redis://%s:%d/%d", c.cfg.Host, c.cfg.Port, c.cfg.Db)
}

func (c *redisConnector) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port),
		Password: c.cfg.Password,
		DB:       c.cfg.Db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Errorf("redis: unable to reach %s: %v", c.Name(), err)
		_ = client.Close()
		return err
	}
	c.client = client
	c.logger.Infof("redis: connected to %s", c.Name())
	return nil
}

func (c *redisConnector) IsConnected(ctx context.Context) bool {
	return c.client != nil && c.client.Ping(ctx).Err() == nil
}

func (c *redisConnector) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	c.logger.Infof("redis: disconnecting %s", c.Name())
	return c.client.Close()
}

func (c *redisConnector) GetConnection() *redis.Client {
	return c.client
}
