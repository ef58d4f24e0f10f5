// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/material"
	"lotledger/internal/domain/production"
	"lotledger/internal/infrastructure/http/v1/handlers"
	"lotledger/internal/infrastructure/http/v1/middleware"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (nil for in-memory storage)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	MaterialService   *material.Service
	BatchService      *batch.Service
	ProductionService *production.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	healthHandler.RegisterRoutes(router.Group("/health"))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	base := handlers.NewBaseHandler()
	materialHandler := handlers.NewMaterialHandler(base, cfg.MaterialService)
	batchHandler := handlers.NewBatchHandler(base, cfg.BatchService)
	productionHandler := handlers.NewProductionHandler(base, cfg.ProductionService)

	api := router.Group("/api/v1")
	{
		materials := api.Group("/materials")
		materialHandler.RegisterRoutes(materials)
		materials.GET("/:id/batches", batchHandler.ListByMaterial)

		batchHandler.RegisterRoutes(api.Group("/batches"))
		productionHandler.RegisterRoutes(api.Group("/production-orders"))
	}

	return router
}
