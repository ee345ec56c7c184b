package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsefeed_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulsefeed_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// ClaimsGranted counts successful daily claims.
	ClaimsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsefeed_daily_claims_granted_total",
		Help: "Daily point claims granted.",
	})

	// ClaimsRejected counts claims rejected inside the 24h window.
	ClaimsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsefeed_daily_claims_rejected_total",
		Help: "Daily point claims rejected by the claim window.",
	})

	// TasksCompleted counts once-per-day task awards by task type.
	TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsefeed_daily_tasks_completed_total",
		Help: "Once-per-day task completions by type.",
	}, []string{"task_type"})
)

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
