package notify

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitienda/storefront/internal/metrics"
)

// HandlerConfig carries the dependencies for the notifier's HTTP surface.
type HandlerConfig struct {
	Sender  Sender
	Metrics *metrics.Registry
}

// RegisterNotifierRoutes wires the notification endpoints.
func RegisterNotifierRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/health", cfg.health)
	r.GET("/test-email", cfg.testEmail)
	r.POST("/notify/new-order", cfg.newOrder)
}

func (cfg HandlerConfig) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"service":         "notification-service",
		"emailConfigured": cfg.Sender.Configured(),
	})
}

func (cfg HandlerConfig) testEmail(c *gin.Context) {
	if err := cfg.Sender.Send("Correo de prueba - MiTienda", "<p>El servicio de notificaciones funciona correctamente.</p>"); err != nil {
		cfg.count("test", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	cfg.count("test", "sent")
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "correo de prueba enviado"})
}

func (cfg HandlerConfig) newOrder(c *gin.Context) {
	var ev NewOrderEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo de la solicitud inválido"})
		return
	}
	if ev.OrderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "se requiere el ID del pedido"})
		return
	}

	subject, body, err := RenderNewOrder(ev)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := cfg.Sender.Send(subject, body); err != nil {
		// The BFF fires and forgets; log loudly but answer with the failure
		// so manual retries via curl can see what happened.
		log.Printf("[notify] new-order email failed for order %d: %v", ev.OrderID, err)
		cfg.count("new_order", "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[notify] sent new-order email for order %d", ev.OrderID)
	cfg.count("new_order", "sent")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (cfg HandlerConfig) count(kind, outcome string) {
	if cfg.Metrics != nil {
		cfg.Metrics.NotificationsSent.WithLabelValues(kind, outcome).Inc()
	}
}
