// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests.
	// Labels: method, route (echo path template), status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipehub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// RecipeSearches counts recipe list calls, split by whether a query was given.
	RecipeSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_recipe_searches_total",
			Help: "Total number of recipe list requests",
		},
		[]string{"filtered"},
	)

	// SearchHistoryWrites counts search history entries by outcome.
	// Labels: outcome ("batched", "dropped", "failed").
	SearchHistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_search_history_writes_total",
			Help: "Search history entries written, by outcome",
		},
		[]string{"outcome"},
	)

	// ImageStoreBreakerState is 0 closed, 1 half-open, 2 open.
	ImageStoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipehub_image_store_breaker_state",
			Help: "Circuit breaker state of the image store (0 closed, 1 half-open, 2 open)",
		},
	)
)

// Middleware records request count and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
