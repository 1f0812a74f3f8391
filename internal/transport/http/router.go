package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/domain"
)

// Deps collects everything the router needs. Nil services leave their
// routes unregistered, and /metrics is served only when Gatherer is set.
type Deps struct {
	Plans       PlanCommitter
	Seats       SeatMutator
	Occasions   OccasionAdmin
	Persons     PersonAdmin
	DB          Pinger
	Layout      domain.Layout
	RatioBand   domain.RatioBand
	CORSOrigins []string
	Logger      *zap.Logger
	Metrics     RequestMetrics
	Gatherer    prometheus.Gatherer
}

// NewRouter wires the HTTP API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/health", HealthHandler(d.DB))
	mux.Handle("/layout", HandleLayout(d.Layout, d.RatioBand))
	if d.Occasions != nil {
		mux.Handle("/occasions", HandleOccasions(d.Occasions, logger))
	}
	if d.Persons != nil {
		mux.Handle("/persons", HandlePersons(d.Persons, logger))
	}
	if d.Plans != nil {
		mux.Handle("/occasions/{id}/plan", HandlePlan(d.Plans, logger))
	}
	if d.Seats != nil {
		mux.Handle("/occasions/{id}/assignments", HandleOccasionAssignments(d.Seats, logger))
		mux.Handle("/assignments/{id}", HandleAssignment(d.Seats, logger))
		mux.Handle("/assignments/{id}/reseat", HandleReseat(d.Seats, logger))
	}
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", NotFoundHandler())

	return RequestLogger(CORS(d.CORSOrigins, mux), logger, d.Metrics)
}
