package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/interfaces/http/handler"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
	"github.com/stocksync/backend/internal/interfaces/http/router"
)

// HTTPHandler builds the API engine over the runtime's services
func (rt *Runtime) HTTPHandler(version string) (*gin.Engine, error) {
	cfg := rt.Config
	log := rt.Logger

	blacklist, err := auth.NewTokenBlacklist(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("token blacklist: %w", err)
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	sqlDB, err := rt.Database.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	return router.New(
		router.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			TracingEnabled: cfg.Telemetry.Enabled,
			CORS:           middleware.CORSConfigFromHTTP(cfg.HTTP),
			MaxBodySize:    cfg.HTTP.MaxBodySize,
			SyncSecret:     cfg.Sync.Secret,
		},
		router.Handlers{
			Health:  handler.NewHealthHandler(sqlDB, version, log),
			Auth:    handler.NewAuthHandler(auth.NewDashboardAuthenticator(cfg.Dashboard), jwtService, blacklist, log),
			Product: handler.NewProductHandler(appinventory.NewProductService(rt.Products, log)),
			Sync:    handler.NewSyncHandler(rt.Sync, appinventory.NewSyncLogService(rt.SyncLogs)),
		},
		router.Security{JWT: jwtService, Blacklist: blacklist},
		log,
	), nil
}
