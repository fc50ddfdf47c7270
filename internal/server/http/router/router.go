package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/catalogsync/internal/config"
	"github.com/polkiloo/catalogsync/internal/metrics"
	pkgAuth "github.com/polkiloo/catalogsync/internal/pkg/auth"
	"github.com/polkiloo/catalogsync/internal/server/http/dto"
	"github.com/polkiloo/catalogsync/internal/server/http/handlers"
	"github.com/polkiloo/catalogsync/internal/server/http/middleware"
)

// Params groups router dependencies.
type Params struct {
	fx.In

	Facade   handlers.CatalogFacade
	Verifier pkgAuth.KeyVerifier
	Metrics  *metrics.Registry
	Config   *config.Config
	Logger   *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.SecureHeaders())
	engine.Use(cors.New(corsConfig(p.Config.CORSOrigins)))
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))

	healthHandler := handlers.NewHealthHandler(p.Config.Environment)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	productHandler := handlers.NewProductHandler(p.Facade)
	syncHandler := handlers.NewSyncHandler(p.Facade)
	admin := middleware.AdminRequired(p.Verifier)

	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	api := engine.Group("/api")
	api.Use(middleware.RateLimit(middleware.NewIPRateLimiter(p.Config.RateLimitWindow, p.Config.RateLimitMaxRequests)))

	v1 := api.Group("/v1")
	v1.GET("/health", healthHandler.Check)

	orders := v1.Group("/orders")
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/product/:productId", orderHandler.ByProduct)

	products := v1.Group("/products")
	products.GET("", productHandler.List)
	products.POST("/backfill", admin, productHandler.Backfill)
	products.GET("/:id", productHandler.Get)
	products.DELETE("/:id", admin, productHandler.Delete)

	sync := v1.Group("/sync")
	sync.GET("/status", syncHandler.Status)
	sync.POST("/trigger", admin, syncHandler.Trigger)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Envelope{Success: false, Message: "Route not found"})
	})

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.AdminKeyHeader},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
