package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/interfaces/http/handler"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
)

// Config holds the HTTP surface settings
type Config struct {
	ServiceName    string
	TracingEnabled bool
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	SyncSecret     string
}

// Handlers are the endpoint handlers mounted by New
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Sync    *handler.SyncHandler
}

// Security provides token validation for protected routes
type Security struct {
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
}

// New builds the gin engine with the global middleware chain and every route.
//
//	GET  /health                           public
//	POST /api/v1/auth/login                public
//	POST /api/v1/auth/logout               JWT
//	*    /api/v1/products...               JWT
//	POST /api/v1/sync, GET /sync/logs...   JWT
//	POST /api/v1/sync/scheduled            X-Sync-Secret
func New(cfg Config, h Handlers, sec Security, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.GET("/health", h.Health.Health)

	jwtCfg := middleware.DefaultJWTConfig(sec.JWT)
	jwtCfg.TokenBlacklist = sec.Blacklist
	jwtCfg.Logger = log
	authenticated := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.TracingAttributeInjector(),
	}
	protect := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(authenticated)+len(handlers))
		chain = append(chain, authenticated...)
		return append(chain, handlers...)
	}

	authRoutes := NewDomainGroup("auth", "/auth").
		POST("/login", h.Auth.Login).
		POST("/logout", protect(h.Auth.Logout)...)

	productRoutes := NewDomainGroup("products", "/products").Use(authenticated...)
	productRoutes.
		GET("", h.Product.List).
		POST("", h.Product.Create).
		GET("/:id", h.Product.Get).
		PUT("/:id/quantity", h.Product.UpdateQuantity).
		PUT("/:id/marketplaces", h.Product.UpdateMarketplaces)

	syncRoutes := NewDomainGroup("sync", "/sync").
		POST("", protect(h.Sync.Run)...).
		POST("/scheduled", middleware.SyncSecret(cfg.SyncSecret, log), h.Sync.RunScheduled)
	syncRoutes.Group("logs", "/logs").
		Use(authenticated...).
		GET("", h.Sync.ListLogs).
		GET("/:id", h.Sync.GetLog)

	NewRouter(engine, WithAPIVersion("v1")).
		Register(authRoutes).
		Register(productRoutes).
		Register(syncRoutes).
		Setup()

	return engine
}
