package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	thinkplusRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thinkplus_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	thinkplusRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thinkplus_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	thinkplusSignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkplus_signups_total",
		Help: "Total accounts created through the signup endpoint.",
	})

	thinkplusLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thinkplus_logins_total",
		Help: "Total login attempts by method and result.",
	}, []string{"method", "result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		thinkplusRequestsTotal.WithLabelValues(method, path, status).Inc()
		thinkplusRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSignup records a successful account signup.
func RecordSignup() {
	thinkplusSignupsTotal.Inc()
}

// RecordLogin records a login attempt for the given method
// ("password", "google", "apple").
func RecordLogin(method string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	thinkplusLoginsTotal.WithLabelValues(method, result).Inc()
}
