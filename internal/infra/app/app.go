// Package app wires configuration, storage, services, and transports into a
// runnable process.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/infra/config"
	"github.com/agrisense/gatekeeper/internal/infra/database"
	kafkainfra "github.com/agrisense/gatekeeper/internal/infra/kafka"
	"github.com/agrisense/gatekeeper/internal/infra/logger"
	redisinfra "github.com/agrisense/gatekeeper/internal/infra/redis"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/infra/telemetry"
	"github.com/agrisense/gatekeeper/internal/repository/memory"
	postgresrepo "github.com/agrisense/gatekeeper/internal/repository/postgres"
	redisrepo "github.com/agrisense/gatekeeper/internal/repository/redis"
	"github.com/agrisense/gatekeeper/internal/repository/state"
	"github.com/agrisense/gatekeeper/internal/transport/http/middleware"
	"github.com/agrisense/gatekeeper/internal/transport/http/routes"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	store    port.StateStore
	watchdog *usecase.WatchdogService
	tracer   *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	// Shared state space: Redis when configured, in-process otherwise.
	var stateStore port.StateStore
	var redisClient *redisinfra.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		stateStore = redisrepo.NewStateStore(redisClient.Client(), cfg.Redis.ChangeChannel, log)
	} else {
		log.Info("redis host not configured, using in-memory state store")
		stateStore = memory.NewStateStore()
	}

	directoryRepo := state.NewDirectoryRepository(stateStore, log)
	legacyRepo := state.NewLegacyRepository(stateStore)
	policyRepo := state.NewPolicyRepository(stateStore, log)
	sessionRepo := state.NewSessionRepository(stateStore, log)

	// Postgres backs the durable audit log and the admin inbox. Both degrade
	// to disabled when no host is configured.
	var pool *pgxpool.Pool
	var repos *postgresrepo.Repositories
	if cfg.Postgres.Host != "" {
		pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			closeRedis(redisClient)
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		repos = postgresrepo.NewRepositories(pool)
	} else {
		log.Info("postgres host not configured, audit log and inbox disabled")
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	tokens, err := security.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		closeRedis(redisClient)
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	authService, err := usecase.NewAuthService(directoryRepo, legacyRepo, policyRepo, sessionRepo, tokens, log)
	if err != nil {
		closeRedis(redisClient)
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	authService.
		WithAdminIdentity(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword).
		WithBypassIdentities(cfg.Watchdog.BypassUsers).
		WithEventPublisher(eventPublisher)

	directoryService := usecase.NewDirectoryService(directoryRepo, legacyRepo, eventPublisher, log)
	policyService := usecase.NewPolicyService(policyRepo, log)

	var inboxService *usecase.InboxService
	if repos != nil {
		directoryService.WithAuditLog(repos.Audit)
		inboxService = usecase.NewInboxService(repos.Messages, log)
	}

	watchdogMetrics, err := telemetry.NewWatchdogMetrics(nil)
	if err != nil {
		closeRedis(redisClient)
		return nil, fmt.Errorf("init watchdog metrics: %w", err)
	}

	watchdog := usecase.NewWatchdogService(sessionRepo, directoryRepo, legacyRepo, policyRepo, eventPublisher, log).
		WithInterval(cfg.Watchdog.Interval).
		WithBypassIdentities(cfg.Watchdog.BypassUsers).
		WithMetrics(watchdogMetrics)
	if repos != nil {
		watchdog.WithAuditLog(repos.Audit)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		closeRedis(redisClient)
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: httpMetrics,
		Services: routes.ServiceSet{
			Auth:      authService,
			Directory: directoryService,
			Policy:    policyService,
			Inbox:     inboxService,
		},
	}
	if pool != nil {
		deps.Database = pool
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	engine := routes.Register(deps)

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		store:    stateStore,
		watchdog: watchdog,
		tracer:   tracer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	watchdogCtx, cancelWatchdog := context.WithCancel(ctx)
	defer cancelWatchdog()

	var changes <-chan port.KeyChange
	if a.cfg.Watchdog.WakeOnChange {
		feed, err := a.store.Subscribe(watchdogCtx)
		if err != nil {
			a.logger.Warn("state change subscription failed, relying on polling alone", zap.Error(err))
		} else {
			changes = feed
		}
	}

	watchdogErrCh := make(chan error, 1)
	go func() {
		if err := a.watchdog.Run(watchdogCtx, changes); err != nil && err != context.Canceled {
			watchdogErrCh <- fmt.Errorf("run watchdog: %w", err)
		}
	}()
	defer a.watchdog.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting gatekeeper API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.watchdog.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-watchdogErrCh:
		return err
	}
}

func closeRedis(client *redisinfra.Client) {
	if client != nil {
		_ = client.Close()
	}
}
