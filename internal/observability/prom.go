package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// AI proxy
	AICallsTotal   *prometheus.CounterVec
	AICallDuration *prometheus.HistogramVec
	AICacheEvents  *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mockmate",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mockmate",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mockmate",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mockmate",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mockmate",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		AICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mockmate",
				Subsystem: "ai",
				Name:      "calls_total",
				Help:      "Upstream model calls by operation and result.",
			},
			[]string{"op", "result"}, // result=ok|error|degraded
		),
		AICallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mockmate",
				Subsystem: "ai",
				Name:      "call_duration_seconds",
				Help:      "Upstream model call latency.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"op"},
		),
		AICacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mockmate",
				Subsystem: "ai",
				Name:      "cache_events_total",
				Help:      "Analysis cache hits, misses and full clears.",
			},
			[]string{"event"}, // event=hit|miss|clear
		),
	}

	if reg != nil {
		reg.MustRegister(
			p.RequestsTotal,
			p.RequestsDuration,
			p.InFlight,
			p.DbQueryDuration,
			p.DbErrorsTotal,
			p.AICallsTotal,
			p.AICallDuration,
			p.AICacheEvents,
		)
	}

	return p
}

// HTTPMiddleware records request counts, latency and in-flight gauge per route.
func (p *Prom) HTTPMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method

		p.InFlight.WithLabelValues(method, route).Inc()

		start := time.Now()

		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())

		p.InFlight.WithLabelValues(method, route).Dec()
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
