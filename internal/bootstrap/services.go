package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Egem97/ttl-apg/config"
	"github.com/Egem97/ttl-apg/internal/adapters/dashsource"
	"github.com/Egem97/ttl-apg/internal/adapters/permissions"
	adapterredis "github.com/Egem97/ttl-apg/internal/adapters/redis"
	"github.com/Egem97/ttl-apg/internal/adapters/reaper"
	"github.com/Egem97/ttl-apg/internal/cache"
	httpx "github.com/Egem97/ttl-apg/internal/http"
	"github.com/Egem97/ttl-apg/internal/ports"
	"github.com/Egem97/ttl-apg/internal/service"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth      *service.AuthService
	Sessions  *adapterredis.SessionStore
	Cache     *cache.Store
	Memo      *cache.Memoizer
	Oracle    ports.PermissionOracle
	Dashboard httpx.DashboardSource
	Health    map[string]httpx.Pinger
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config       *config.AppConfig
	DB           *sql.DB
	SessionRedis redis.UniversalClient
	CacheRedis   redis.UniversalClient
	Logger       *slog.Logger
}

// NewServices wires stores, adapters and services from connected
// infrastructure. The database handle may be nil in mock-auth
// development setups; permission checks and dashboard data are then
// unavailable and their routes are not registered.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionStore := adapterredis.NewSessionStore(
		deps.SessionRedis,
		deps.Config.Auth.SessionTimeout,
		adapterredis.WithLogger(logger),
	)

	authSvc, err := BuildAuthService(AuthDeps{
		Auth:     deps.Config.Auth,
		DB:       deps.DB,
		Sessions: sessionStore,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	cacheStore := cache.NewStore(
		deps.CacheRedis,
		deps.Config.Cache.DefaultTTL,
		cache.WithStoreLogger(logger),
	)

	container := ServiceContainer{
		Auth:     authSvc,
		Sessions: sessionStore,
		Cache:    cacheStore,
		Memo:     cache.NewMemoizer(cacheStore, deps.Config.Cache.DefaultTTL),
		Health: map[string]httpx.Pinger{
			"sessions": sessionStore,
			"cache":    cacheStore,
		},
	}

	if deps.DB != nil {
		oracle := permissions.NewPostgresOracle(deps.DB, logger)
		container.Oracle = oracle
		container.Dashboard = dashsource.NewPostgresSource(deps.DB)
		container.Health["permissions"] = oracle
	} else {
		logger.Warn("no database connected; permission checks and dashboard data disabled")
	}

	return container, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config       *config.AppConfig
	Services     ServiceContainer
	SessionRedis redis.UniversalClient
	Logger       *slog.Logger
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	var httpServer *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	var backgrounds []backgroundServiceHandle
	if enabledServices[config.ServiceModeReaper] {
		handle, reaperErr := startReaper(serviceCtx, cfg, logger, errCh)
		if reaperErr != nil {
			return reaperErr
		}
		backgrounds = append(backgrounds, handle)
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

// startReaper launches the session sweep loop in the background.
func startReaper(
	ctx context.Context,
	cfg *ServiceOrchestrationConfig,
	logger *slog.Logger,
	errCh chan<- error,
) (backgroundServiceHandle, error) {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		Client: cfg.SessionRedis,
		Config: cfg.Config.Reaper,
		Logger: logger,
	})
	if err != nil {
		return backgroundServiceHandle{}, fmt.Errorf("create session reaper: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := runner.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			select {
			case errCh <- fmt.Errorf("session reaper failed: %w", runErr):
			default:
				logger.WarnContext(ctx, "dropping background service error",
					"service", "reaper", "error", runErr)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", "reaper")
	return backgroundServiceHandle{name: "session reaper", done: done}, nil
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
