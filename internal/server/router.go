package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/audit"
	"github.com/Skufu/medpredict/internal/inference"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps wires the router. DB and Audit are nil when persistence is disabled.
type Deps struct {
	Pipeline       *inference.Pipeline
	Registry       *artifact.Registry
	DB             HealthChecker
	Audit          audit.Recorder
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type handler struct {
	pipeline *inference.Pipeline
	registry *artifact.Registry
	db       HealthChecker
	audit    audit.Recorder
	log      *slog.Logger
}

// NewRouter builds the HTTP surface consumed by the form frontend.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	h := &handler{
		pipeline: d.Pipeline,
		registry: d.Registry,
		db:       d.DB,
		audit:    d.Audit,
		log:      d.Logger.With("component", "server"),
	}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		requestID(),
		limitBodySize(d.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: d.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", h.healthz)
	router.GET("/readyz", h.readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/domains", h.listDomains)
	api.GET("/domains/:domain/schema", h.domainSchema)
	api.POST("/domains/:domain/predict", h.predict)

	return router
}
