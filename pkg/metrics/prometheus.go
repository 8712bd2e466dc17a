package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint", "status"},
	)
	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_remote_requests_total",
			Help: "Requests made to the row service.",
		},
		[]string{"backend", "action", "outcome"},
	)
	remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogue_remote_request_duration_seconds",
			Help:    "Row service request latency.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"backend", "action"},
	)
	identityResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_identity_resolutions_total",
			Help: "Identity resolutions by final state.",
		},
		[]string{"state"},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_uploads_total",
			Help: "Image uploads by outcome.",
		},
		[]string{"outcome"},
	)
	catalogueSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogue_entities",
			Help: "Number of entities held by the catalogue store.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(remoteRequestsTotal)
	prometheus.MustRegister(remoteRequestDuration)
	prometheus.MustRegister(identityResolutionsTotal)
	prometheus.MustRegister(uploadsTotal)
	prometheus.MustRegister(catalogueSize)
}

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordRemote records one row service call.
func RecordRemote(backend, action string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remoteRequestsTotal.WithLabelValues(backend, action, outcome).Inc()
	remoteRequestDuration.WithLabelValues(backend, action).Observe(duration.Seconds())
}

// RecordResolution counts an identity resolution by its final state.
func RecordResolution(state string) {
	identityResolutionsTotal.WithLabelValues(state).Inc()
}

// RecordUpload counts one uploaded or rejected file.
func RecordUpload(err error) {
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		return
	}
	uploadsTotal.WithLabelValues("ok").Inc()
}

// SetCatalogueSize publishes the store's collection sizes.
func SetCatalogueSize(products, categories, clusters int) {
	catalogueSize.WithLabelValues("products").Set(float64(products))
	catalogueSize.WithLabelValues("categories").Set(float64(categories))
	catalogueSize.WithLabelValues("clusters").Set(float64(clusters))
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// Middleware records every request handled by the fiber app, labelled by
// route pattern rather than raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		RecordRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}

// Handler exposes the prometheus registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
