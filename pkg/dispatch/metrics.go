package dispatch

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and latencies per host, method and status.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todosoa",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests.",
			},
			[]string{"host", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "todosoa",
				Name:      "request_duration_seconds",
				Help:      "Time spent serving dispatched requests.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"host", "method"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Wrapper returns the dispatch wrapper feeding these metrics.
func (m *Metrics) Wrapper() Wrapper {
	return func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			start := time.Now()
			res := next.Handle(ctx, req)

			status := "none"
			if res != nil {
				status = strconv.Itoa(res.Status)
			}
			m.requests.WithLabelValues(req.Host, req.Method, status).Inc()
			m.duration.WithLabelValues(req.Host, req.Method).Observe(time.Since(start).Seconds())
			return res
		})
	}
}

// Requests exposes the request counter, mainly for tests.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}
