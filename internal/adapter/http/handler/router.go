package handler

import (
	"net/http"

	"webhook-dispatcher/internal/adapter/http/middleware"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Dispatcher     ports.EventDispatcher
	DeliverySvc    ports.DeliveryService
	CircuitBreaker ports.CircuitBreaker
	DeadLetters    ports.DeadLetterQueue
	Resolver       ports.SubscriptionResolver
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker

	DispatchDefaults    ports.DispatchOptions
	DispatchMode        string
	RetryLimit          int
	DeadLetterBatchSize int

	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule

	MetricsPath    string
	MetricsHandler http.Handler // nil = metrics endpoint disabled

	Mode   string // gin mode; defaults to release
	Logger zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxRequestBody))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.MetricsHandler))
	}

	rules := deps.RateLimitRules
	if rules == nil {
		rules = middleware.DefaultRateLimitRules(0, 0)
	}
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1",
		middleware.JWTAuth(deps.TokenSvc, deps.Logger),
		middleware.AuditLog(deps.Logger),
	)
	read := v1.Group("", middleware.RequireRole(service.RoleViewer), rl(middleware.GroupAdminRead))
	write := v1.Group("", middleware.RequireRole(service.RoleOperator), rl(middleware.GroupAdminWrite))

	dispatchHandler := NewDispatchHandler(deps.Dispatcher, deps.DispatchDefaults, deps.DispatchMode)
	write.POST("/dispatch", dispatchHandler.Trigger)
	read.GET("/events/backlog", dispatchHandler.Backlog)

	deliveryHandler := NewDeliveryHandler(deps.DeliverySvc, deps.RetryLimit)
	read.GET("/deliveries/:id", deliveryHandler.Get)
	write.POST("/deliveries/:id/cancel", deliveryHandler.Cancel)
	write.POST("/deliveries/retry", deliveryHandler.RetryScan)

	circuitHandler := NewCircuitHandler(deps.CircuitBreaker)
	read.GET("/circuits", circuitHandler.List)
	read.GET("/circuits/:endpoint_id", circuitHandler.Get)
	write.POST("/circuits/:endpoint_id/reset", circuitHandler.Reset)
	write.POST("/circuits/:endpoint_id/force-open", circuitHandler.ForceOpen)
	write.POST("/circuits/:endpoint_id/force-close", circuitHandler.ForceClose)

	deadLetterHandler := NewDeadLetterHandler(deps.DeadLetters, deps.DeadLetterBatchSize)
	read.GET("/dead-letters", deadLetterHandler.List)
	write.POST("/dead-letters/process", deadLetterHandler.Process)
	write.POST("/dead-letters/:delivery_id/retry", deadLetterHandler.Retry)
	write.POST("/dead-letters/cleanup", deadLetterHandler.Cleanup)

	cacheHandler := NewCacheHandler(deps.Resolver)
	write.POST("/cache/subscriptions/invalidate", cacheHandler.InvalidateSubscriptions)

	return r
}
