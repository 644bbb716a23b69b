package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/infra/config"
	"github.com/agrisense/gatekeeper/internal/transport/http/handlers"
	"github.com/agrisense/gatekeeper/internal/transport/http/middleware"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth      *usecase.AuthService
	Directory *usecase.DirectoryService
	Policy    *usecase.PolicyService
	Inbox     *usecase.InboxService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *middleware.HTTPMetrics
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	sessionRequired := middleware.RequireSession(deps.Services.Auth)
	adminOnly := middleware.RequireAdmin()

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(api.Group("/auth"))

		accountHandler := handlers.NewAccountHandler(deps.Services.Directory)

		selfGroup := api.Group("/account")
		selfGroup.Use(sessionRequired)
		accountHandler.RegisterSelfRoutes(selfGroup)

		adminGroup := api.Group("/admin")
		adminGroup.Use(sessionRequired, adminOnly)

		accountHandler.RegisterAdminRoutes(adminGroup.Group("/accounts"))

		policyHandler := handlers.NewPolicyHandler(deps.Services.Policy)
		policyHandler.RegisterRoutes(adminGroup.Group("/policy"))

		sessionHandler := handlers.NewSessionHandler(deps.Services.Auth)
		sessionHandler.RegisterRoutes(adminGroup.Group("/sessions"))

		if deps.Services.Inbox != nil {
			messageHandler := handlers.NewMessageHandler(deps.Services.Inbox)

			submitGroup := api.Group("/messages")
			submitGroup.Use(sessionRequired)
			messageHandler.RegisterSubmitRoute(submitGroup)

			messageHandler.RegisterAdminRoutes(adminGroup.Group("/messages"))
		}
	}

	return r
}
