// Command apg-dashboard runs the BI dashboard's session, authorization
// and cache backend. SERVICES selects which components run in this
// process: the HTTP API, the session reaper, or both.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/Egem97/ttl-apg/config"
	"github.com/Egem97/ttl-apg/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	cfgPtr := &cfg

	logStartupInfo(ctx, logger, cfgPtr)

	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	db, sessionRedis, cacheRedis, err := initInfrastructure(ctx, cfgPtr, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(ctx, logger, "database", func() error {
		if db == nil {
			return nil
		}
		return db.Close()
	})
	defer closeQuietly(ctx, logger, "session redis", sessionRedis.Close)
	defer closeQuietly(ctx, logger, "cache redis", cacheRedis.Close)

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:       cfgPtr,
		DB:           db,
		SessionRedis: sessionRedis,
		CacheRedis:   cacheRedis,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:       cfgPtr,
		Services:     services,
		SessionRedis: sessionRedis,
		Logger:       logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting apg-dashboard service",
		"auth_mode", cfg.Auth.Mode,
		"session_timeout", cfg.Auth.SessionTimeout,
		"enabled_services", bootstrap.GetEnabledServices(cfg),
	)
}

// initInfrastructure connects shared dependencies used by the service
// runtime. The user/permission database is optional in mock-auth mode so
// the API can run against Redis alone during development.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		if cfg.Auth.Mode != config.AuthModeMock {
			return nil, nil, nil, fmt.Errorf("connect db: %w", err)
		}
		logger.WarnContext(ctx, "database unavailable; continuing without permission checks",
			"error", err)
		db = nil
	}

	sessionRedis, err := bootstrap.ConnectRedis(dbCfg, cfg.Redis.SessionDB)
	if err != nil {
		closeQuietly(ctx, logger, "database", func() error {
			if db == nil {
				return nil
			}
			return db.Close()
		})
		return nil, nil, nil, fmt.Errorf("connect session redis: %w", err)
	}

	cacheRedis, err := bootstrap.ConnectRedis(dbCfg, cfg.Redis.CacheDB)
	if err != nil {
		closeQuietly(ctx, logger, "session redis", sessionRedis.Close)
		closeQuietly(ctx, logger, "database", func() error {
			if db == nil {
				return nil
			}
			return db.Close()
		})
		return nil, nil, nil, fmt.Errorf("connect cache redis: %w", err)
	}

	return db, sessionRedis, cacheRedis, nil
}

func closeQuietly(ctx context.Context, logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.ErrorContext(ctx, "close "+name+" failed", "error", err)
	}
}
