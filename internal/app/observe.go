package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/events"
)

// Metrics receives one observation per finished operation.
type Metrics interface {
	PlanCompleted(outcome string, attempts, placed int, elapsed time.Duration)
	MutationCompleted(op, outcome string, elapsed time.Duration)
}

// ChangePublisher forwards committed seat changes to live-update listeners.
type ChangePublisher interface {
	Publish(ctx context.Context, change events.Change) error
}

type observers struct {
	logger    *zap.Logger
	metrics   Metrics
	publisher ChangePublisher
}

func defaultObservers() observers {
	return observers{
		logger:    zap.NewNop(),
		metrics:   nopMetrics{},
		publisher: events.NopPublisher{},
	}
}

// Option configures cross-cutting dependencies shared by the services.
type Option func(*observers)

func WithLogger(l *zap.Logger) Option {
	return func(o *observers) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *observers) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithPublisher(p ChangePublisher) Option {
	return func(o *observers) {
		if p != nil {
			o.publisher = p
		}
	}
}

func (o observers) publish(ctx context.Context, change events.Change) {
	// Best effort: seat state is already committed.
	if err := o.publisher.Publish(ctx, change); err != nil {
		o.logger.Warn("publish seat change failed",
			zap.String("kind", string(change.Kind)),
			zap.String("occasion_id", change.OccasionID),
			zap.Error(err),
		)
	}
}

type nopMetrics struct{}

func (nopMetrics) PlanCompleted(string, int, int, time.Duration) {}

func (nopMetrics) MutationCompleted(string, string, time.Duration) {}

// Outcome labels used for metrics and logs.
const (
	OutcomeOK            = "ok"
	OutcomeValidation    = "validation"
	OutcomeNotFound      = "not_found"
	OutcomeConflict      = "conflict"
	OutcomeUnsatisfiable = "unsatisfiable"
	OutcomePersistence   = "persistence"
	OutcomeLock          = "lock"
	OutcomeError         = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrPersistence):
		return OutcomePersistence
	case errors.Is(err, domain.ErrLock):
		return OutcomeLock
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, domain.ErrConstraintUnsatisfiable):
		return OutcomeUnsatisfiable
	default:
		return OutcomeError
	}
}

func isCategorized(err error) bool {
	return outcomeOf(err) != OutcomeError
}
