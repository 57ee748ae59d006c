// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

type DatabaseConnector interface {
	Connector
	DB(ctx context.Context) *gorm.DB
}

type databaseConnector struct {
	cfg    *config.DatabaseConfig
	logger commons.Logger
	db     *gorm.DB
}

// NewDatabaseConnector supports postgres for deployments and sqlite for
// single node setups and tests.
func NewDatabaseConnector(cfg *config.DatabaseConfig, logger commons.Logger) DatabaseConnector {
	return &databaseConnector{cfg: cfg, logger: logger}
}

func (c *databaseConnector) Name() string {
	return fmt.Sprintf("database://%s", c.cfg.Driver)
}

func (c *databaseConnector) dialector() (gorm.Dialector, error) {
	switch c.cfg.Driver {
	case "postgres":
		return postgres.Open(c.cfg.Dsn), nil
	case "sqlite":
		return sqlite.Open(c.cfg.Dsn), nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", c.cfg.Driver)
	}
}

func (c *databaseConnector) Connect(ctx context.Context) error {
	dialector, err := c.dialector()
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		c.logger.Errorf("database: unable to open %s: %v", c.Name(), err)
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if c.cfg.MaxOpenConnection > 0 {
		sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConnection)
	}
	if c.cfg.MaxIdealConnection > 0 {
		sqlDB.SetMaxIdleConns(c.cfg.MaxIdealConnection)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping %s: %w", c.Name(), err)
	}
	c.db = db
	c.logger.Infof("database: connected to %s", c.Name())
	return nil
}

func (c *databaseConnector) IsConnected(ctx context.Context) bool {
	if c.db == nil {
		return false
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (c *databaseConnector) Disconnect(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Infof("database: disconnecting %s", c.Name())
	return sqlDB.Close()
}

func (c *databaseConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}
