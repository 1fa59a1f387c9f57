package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/infrastructure/auth"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/genlab/backend/internal/infrastructure/logger"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/genlab/backend/internal/interfaces/http/handler"
	"github.com/genlab/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API and without authentication
const HealthPath = "/health"

// Handlers are the HTTP handlers of the ledger API
type Handlers struct {
	Inputs  *handler.InputHandler
	Outputs *handler.OutputHandler
	Batches *handler.ProductionBatchHandler
	Auth    *handler.AuthHandler
	Health  *handler.HealthHandler
}

// Deps is everything New needs to build the engine. Optional parts are
// left nil to disable them.
type Deps struct {
	Logger           *zap.Logger
	ServiceName      string
	HTTP             config.HTTPConfig
	TracingEnabled   bool
	ProfilingEnabled bool
	// Meter records HTTP metrics when set
	Meter          metric.Meter
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	RateLimiter    middleware.Limiter
	// Idempotency guards withdrawal creation when set
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Handlers       Handlers
}

// New builds the gin engine with the middleware chain and every ledger route
func New(deps Deps) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.JWTService == nil {
		return nil, fmt.Errorf("router: JWT service is required")
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("router: trusted proxies: %w", err)
	}
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = deps.HTTP.CORSAllowOrigins

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log, HealthPath),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: deps.ServiceName,
			Enabled:     deps.TracingEnabled,
			SkipPaths:   []string{HealthPath},
		}),
		middleware.Secure(),
		middleware.CORS(cors),
	)
	if deps.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	}
	if deps.Meter != nil {
		metrics, err := middleware.HTTPMetrics(deps.Meter)
		if err != nil {
			return nil, fmt.Errorf("router: http metrics: %w", err)
		}
		engine.Use(metrics)
	}

	if deps.Handlers.Health != nil {
		engine.GET(HealthPath, deps.Handlers.Health.Check)
	}

	jwtCfg := middleware.DefaultJWTConfig(deps.JWTService)
	jwtCfg.TokenBlacklist = deps.TokenBlacklist
	jwtCfg.Logger = log

	apiMiddleware := []gin.HandlerFunc{
		middleware.JWTAuth(jwtCfg),
		middleware.SpanAnnotator(),
		middleware.Profiling(deps.ProfilingEnabled),
	}
	if deps.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(deps.RateLimiter, log))
	}

	r := NewRouter(engine, WithAPIVersion("v1"), WithGroupMiddleware(apiMiddleware...))
	for _, group := range ledgerGroups(deps) {
		r.Register(group)
	}
	r.Setup()
	return engine, nil
}

// ledgerGroups declares the routes of the ledger API
func ledgerGroups(deps Deps) []*DomainGroup {
	h := deps.Handlers

	idempotent := func(c *gin.Context) { c.Next() }
	if deps.Idempotency != nil {
		ttl := deps.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		idempotent = middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  deps.Idempotency,
			TTL:    ttl,
			Logger: deps.Logger,
		})
	}

	var groups []*DomainGroup
	if h.Inputs != nil && h.Outputs != nil {
		groups = append(groups,
			NewDomainGroup("inputs", "/inputs").
				POST("", h.Inputs.Create).
				GET("", h.Inputs.Search).
				GET("/:id", h.Inputs.GetByID).
				PUT("/:id", h.Inputs.Update).
				DELETE("/:id", h.Inputs.Delete).
				PATCH("/:id/status", h.Inputs.ChangeStatus).
				GET("/:id/outputs", h.Inputs.ListOutputs).
				POST("/:id/outputs", idempotent, h.Outputs.Create).
				POST("/:id/reconcile", h.Inputs.Reconcile),
			NewDomainGroup("bulls", "/bulls").
				GET("/:id/inputs", h.Inputs.ListByBull),
			NewDomainGroup("outputs", "/outputs").
				GET("", h.Outputs.Search).
				GET("/:id", h.Outputs.GetByID).
				PUT("/:id", h.Outputs.Update).
				DELETE("/:id", h.Outputs.Delete),
		)
	}
	if h.Batches != nil {
		groups = append(groups, NewDomainGroup("production-batches", "/production-batches").
			POST("", h.Batches.Create).
			GET("", h.Batches.List).
			GET("/:id", h.Batches.GetByID).
			POST("/:id/outputs", h.Batches.AttachOutputs).
			POST("/:id/opus", h.Batches.AddOpus).
			DELETE("/:id", h.Batches.Delete))
	}
	if h.Auth != nil {
		groups = append(groups, NewDomainGroup("auth", "/auth").
			POST("/logout", h.Auth.Logout))
	}
	return groups
}
