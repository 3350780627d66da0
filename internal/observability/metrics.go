package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ystore"

var (
	// httpRequests counts served requests.
	// Labels: method, route (gin's full path template), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// commentOps counts comment operations.
	// Labels: op (create, react, delete, list), outcome (ok or an error kind)
	commentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "comments",
		Name:      "operations_total",
		Help:      "Comment operations by outcome",
	}, []string{"op", "outcome"})

	// reactionToggles counts reaction flips.
	// Labels: kind (likes, hearts), direction (on, off)
	reactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "comments",
		Name:      "reaction_toggles_total",
		Help:      "Reaction toggles by kind and direction",
	}, []string{"kind", "direction"})
)

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordCommentOp(op, outcome string) {
	commentOps.WithLabelValues(op, outcome).Inc()
}

func RecordReaction(kind string, reacted bool) {
	direction := "off"
	if reacted {
		direction = "on"
	}
	reactionToggles.WithLabelValues(kind, direction).Inc()
}
