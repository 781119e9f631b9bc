package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mitienda/storefront/internal/cart"
	"github.com/mitienda/storefront/internal/commerce"
	"github.com/mitienda/storefront/internal/config"
	"github.com/mitienda/storefront/internal/handlers"
	"github.com/mitienda/storefront/internal/idempotency"
	"github.com/mitienda/storefront/internal/metrics"
	"github.com/mitienda/storefront/internal/notify"
)

func setupRouter(cfg handlers.HandlerConfig, reg *metrics.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestIDMiddleware())
	r.Use(cors.Default())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	handlers.RegisterStorefrontRoutes(r, cfg)

	return r
}

func main() {
	config.LoadEnv()

	apiCfg, err := config.APIFromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	reg := metrics.NewRegistry()

	idempStore := idempotency.NewStore(24 * time.Hour)
	go func() {
		for range time.Tick(time.Hour) {
			idempStore.Sweep()
		}
	}()

	cfg := handlers.HandlerConfig{
		Commerce:    commerce.NewClient(apiCfg.CommerceBaseURL, apiCfg.RequestTimeout, reg),
		Carts:       cart.NewStore(),
		Notifier:    notify.NewClient(apiCfg.NotifierURL),
		Idempotency: idempStore,
	}

	r := setupRouter(cfg, reg)

	log.Printf("storefront api listening on %s (commerce: %s)", apiCfg.Addr, apiCfg.CommerceBaseURL)
	if err := r.Run(apiCfg.Addr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
