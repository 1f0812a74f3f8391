// Package metrics records planner and seat mutation outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "seatplan"

// Nop discards every observation.
type Nop struct{}

func NewNop() *Nop { return &Nop{} }

func (*Nop) PlanCompleted(string, int, int, time.Duration) {}

func (*Nop) MutationCompleted(string, string, time.Duration) {}

func (*Nop) RequestCompleted(string, int, time.Duration) {}

// Prometheus is the collector exposed on /metrics.
type Prometheus struct {
	plans          *prometheus.CounterVec
	planAttempts   prometheus.Histogram
	planSeated     prometheus.Histogram
	planDuration   prometheus.Histogram
	mutations      *prometheus.CounterVec
	mutationTiming *prometheus.HistogramVec
	requests       *prometheus.CounterVec
	requestTiming  *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg (the default registerer when
// nil) under namespace ("seatplan" when empty).
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	p := &Prometheus{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plans_total",
			Help:      "Plan commits by outcome.",
		}, []string{"outcome"}),
		planAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "attempts",
			Help:      "Orderings tried before a committed plan was found.",
			Buckets:   []float64{1, 2, 3, 6, 10, 20, 40, 56},
		}),
		planSeated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "seated",
			Help:      "People seated per committed plan.",
			Buckets:   prometheus.LinearBuckets(0, 25, 8),
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "duration_seconds",
			Help:      "Wall time of plan commits, including the transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seats",
			Name:      "mutations_total",
			Help:      "Swap, move and release operations by outcome.",
		}, []string{"op", "outcome"}),
		mutationTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "seats",
			Name:      "mutation_duration_seconds",
			Help:      "Wall time of seat mutations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(
		p.plans, p.planAttempts, p.planSeated, p.planDuration,
		p.mutations, p.mutationTiming,
		p.requests, p.requestTiming,
	)
	return p
}

func (p *Prometheus) PlanCompleted(outcome string, attempts, placed int, elapsed time.Duration) {
	p.plans.WithLabelValues(outcome).Inc()
	p.planDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		p.planAttempts.Observe(float64(attempts))
		p.planSeated.Observe(float64(placed))
	}
}

func (p *Prometheus) MutationCompleted(op, outcome string, elapsed time.Duration) {
	p.mutations.WithLabelValues(op, outcome).Inc()
	p.mutationTiming.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (p *Prometheus) RequestCompleted(method string, status int, elapsed time.Duration) {
	p.requests.WithLabelValues(method, statusCode(status)).Inc()
	p.requestTiming.WithLabelValues(method).Observe(elapsed.Seconds())
}

func statusCode(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
