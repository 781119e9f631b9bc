package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters the storefront services expose. The
// fallback counters exist because the multi-endpoint retry discipline
// silently swallows backend errors; metrics are the only place those
// failures stay visible.
type Registry struct {
	reg *prometheus.Registry

	FallbackAttempts   *prometheus.CounterVec
	FallbackExhausted  *prometheus.CounterVec
	OrdersCreated      prometheus.Counter
	EnrichmentFailures prometheus.Counter
	NotificationsSent  *prometheus.CounterVec
	LLMRequests        *prometheus.CounterVec
}

// NewRegistry creates and registers all storefront metrics.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_fallback_attempts_total",
		Help: "Endpoint attempts made by fallback chains, by operation and outcome.",
	}, []string{"operation", "outcome"})
	exhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_fallback_exhausted_total",
		Help: "Fallback chains where every candidate endpoint failed.",
	}, []string{"operation"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
	})
	enrichmentFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_enrichment_failures_total",
		Help: "Product-detail lookups that failed during line enrichment.",
	})
	notificationsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_sent_total",
	}, []string{"kind", "outcome"})
	llmRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_llm_requests_total",
	}, []string{"provider", "outcome"})

	r.MustRegister(attempts, exhausted, ordersCreated, enrichmentFailures, notificationsSent, llmRequests)

	return &Registry{
		reg:                r,
		FallbackAttempts:   attempts,
		FallbackExhausted:  exhausted,
		OrdersCreated:      ordersCreated,
		EnrichmentFailures: enrichmentFailures,
		NotificationsSent:  notificationsSent,
		LLMRequests:        llmRequests,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
