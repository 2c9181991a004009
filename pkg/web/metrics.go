package web

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Conversion outcomes
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeNoTelemetry = "no_telemetry"
	outcomeError       = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "etx2mission",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "etx2mission",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "etx2mission",
		Subsystem: "convert",
		Name:      "conversions_total",
		Help:      "Log conversions by outcome",
	}, []string{"outcome"})

	missionWaypoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "etx2mission",
		Subsystem: "convert",
		Name:      "waypoints",
		Help:      "Waypoints per generated mission",
		Buckets:   prometheus.LinearBuckets(10, 10, 12),
	})

	spacingPasses = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "etx2mission",
		Subsystem: "convert",
		Name:      "passes",
		Help:      "Decimation passes per conversion",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := strconv.Itoa(c.Response().StatusCode())
		httpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// MetricsHandler serves the Prometheus registry.
func MetricsHandler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
