package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mitienda/storefront/internal/config"
	"github.com/mitienda/storefront/internal/llm"
	"github.com/mitienda/storefront/internal/metrics"
)

func main() {
	config.LoadEnv()

	cfg := config.ProxyFromEnv()
	reg := metrics.NewRegistry()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	llm.RegisterProxyRoutes(r, llm.HandlerConfig{Metrics: reg})

	log.Printf("llm proxy listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
