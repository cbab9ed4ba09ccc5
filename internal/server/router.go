package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/aslanbek/fieldlog/internal/auth"
	"github.com/aslanbek/fieldlog/internal/config"
	"github.com/aslanbek/fieldlog/internal/logger"
	"github.com/aslanbek/fieldlog/internal/metrics"
	"github.com/aslanbek/fieldlog/internal/records"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config         config.Config
	Logger         *zap.Logger
	DB             *pgxpool.Pool
	ObjectStore    *minio.Client
	AuthService    *auth.Service
	RecordsService *records.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.RecordsService != nil {
			records.RegisterRoutes(protected, deps.RecordsService)
		}
	}

	return router
}
