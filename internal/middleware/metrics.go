package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// RateLimitDenials counts authoritative rate limit rejections.
	RateLimitDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_rate_limit_denials_total",
		Help: "Requests denied by the persistent rate limiter.",
	}, []string{"action"})

	// HoneypotHits counts submissions classified as automated.
	HoneypotHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_honeypot_hits_total",
		Help: "Form submissions that tripped a honeypot field.",
	})

	// WebhookEvents counts processed payment webhook events by outcome.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})
)

// Metrics records request counts and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(requestDuration.WithLabelValues(c.Request.Method, c.FullPath()))
		c.Next()
		timer.ObserveDuration()
		requestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// PrometheusHandler exposes the metrics endpoint.
func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
