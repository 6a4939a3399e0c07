package handlers

import (
	"log"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maguida_messages_processed_total",
		Help: "Chat submissions processed, by outcome",
	}, []string{"status"})

	messageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maguida_message_processing_seconds",
		Help:    "End to end chat submission duration",
		Buckets: prometheus.DefBuckets,
	})

	searchesPerformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maguida_searches_total",
		Help: "Product searches executed against the shop backend",
	})

	searchResultCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maguida_search_result_count",
		Help:    "Products returned per search",
		Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
	})
)

func recordMessageProcessed(status string, seconds float64) {
	messagesProcessed.WithLabelValues(status).Inc()
	messageDuration.Observe(seconds)
}

func recordSearch(resultCount int) {
	searchesPerformed.Inc()
	searchResultCount.Observe(float64(resultCount))
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct {
	// Pre-created handler to avoid recreating on every request
	handler fiber.Handler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	promHandler := promhttp.Handler()
	fiberHandler := adaptor.HTTPHandler(promHandler)

	return &MetricsHandler{
		handler: fiberHandler,
	}
}

// GetMetrics returns Prometheus metrics
// @Summary Get Prometheus metrics
// @Description Returns Prometheus metrics in text format
// @Tags monitoring
// @Produce plain
// @Success 200 {string} string "Prometheus metrics"
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	err := h.handler(c)
	if err != nil {
		log.Printf("metrics handler error - status: %d, error: %v", c.Response().StatusCode(), err)
	}
	return err
}
