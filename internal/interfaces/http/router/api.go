package router

import (
	"net/http"

	"github.com/btp-erp/backend/internal/infrastructure/config"
	"github.com/btp-erp/backend/internal/infrastructure/logger"
	"github.com/btp-erp/backend/internal/interfaces/http/dto"
	"github.com/btp-erp/backend/internal/interfaces/http/handler"
	"github.com/btp-erp/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EngineConfig holds what the global middleware chain needs
type EngineConfig struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Tracing     bool
	// TracerProvider overrides the global provider when set
	TracerProvider trace.TracerProvider
	Metrics        *middleware.HTTPMetrics
}

// NewEngine builds a gin engine with the global middleware chain. Tracing runs
// before the request logger so log lines carry the trace ID.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.Tracing,
			TracerProvider: cfg.TracerProvider,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		middleware.Secure(),
	)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRouteMissing, "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}

// Handlers groups the API handlers mounted by RegisterAPI
type Handlers struct {
	Sales        *handler.SalesHandler
	Transactions *handler.TransactionHandler
	Stats        *handler.StatsHandler
	System       *handler.SystemHandler
}

// RegisterAPI mounts /health and the /api/v1 routes
func RegisterAPI(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)

	salesRoutes := NewDomainGroup("sales", "/sales").
		GET("", h.Sales.List).
		POST("", h.Sales.Create).
		GET("/:id", h.Sales.GetByID).
		PUT("/:id", h.Sales.Update).
		DELETE("/:id", h.Sales.Delete).
		POST("/:id/validate", h.Sales.Validate).
		POST("/:id/deliver", h.Sales.Deliver).
		POST("/:id/cancel", h.Sales.Cancel).
		POST("/:id/invoice", h.Sales.GenerateInvoice).
		POST("/:id/pay", h.Sales.MarkPaid)

	financeRoutes := NewDomainGroup("finance", "/finance").
		GET("/transactions", h.Transactions.List).
		POST("/transactions", h.Transactions.Create).
		GET("/transactions/:id", h.Transactions.GetByID).
		PUT("/transactions/:id", h.Transactions.Update).
		DELETE("/transactions/:id", h.Transactions.Delete).
		GET("/stats", h.Stats.Stats).
		GET("/dashboard-stats", h.Stats.DashboardStats)

	systemRoutes := NewDomainGroup("system", "").
		GET("/ping", h.System.Ping)

	NewRouter(engine, WithAPIVersion("v1")).
		Register(salesRoutes).
		Register(financeRoutes).
		Register(systemRoutes).
		Setup()
}
