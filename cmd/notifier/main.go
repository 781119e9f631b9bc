package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mitienda/storefront/internal/config"
	"github.com/mitienda/storefront/internal/metrics"
	"github.com/mitienda/storefront/internal/notify"
)

func main() {
	config.LoadEnv()

	cfg := config.NotifierFromEnv()
	mailer := notify.NewMailer(cfg)

	if err := mailer.Verify(); err != nil {
		// keep serving; /health reports the state and credentials can be
		// fixed without redeploying the storefront
		log.Printf("[notify] %v", err)
	} else {
		log.Printf("[notify] smtp connection verified for %s", cfg.EmailUser)
	}

	reg := metrics.NewRegistry()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	notify.RegisterNotifierRoutes(r, notify.HandlerConfig{Sender: mailer, Metrics: reg})

	log.Printf("notification service listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
