package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/events"
	"github.com/cimillas/seatplan/internal/logging"
	"github.com/cimillas/seatplan/internal/planner"
)

type PlanRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockOccasion(ctx context.Context, occasionID string) (domain.Occasion, error)
	ListCandidates(ctx context.Context) ([]domain.Person, error)
	ListOccupiedSlots(ctx context.Context, occasionID string) ([]domain.Slot, error)
	CreateAssignment(ctx context.Context, a domain.Assignment) error
	UpdatePersonStatus(ctx context.Context, personID string, status domain.PersonStatus) error
}

// SeatPlanner produces a plan for a classified pool around occupied slots.
type SeatPlanner interface {
	Plan(pool planner.Pool, occupied []domain.Slot) (domain.Plan, error)
}

// PlanService plans and commits a whole occasion in one transaction.
type PlanService struct {
	repo    PlanRepository
	planner SeatPlanner
	clock   clock.Clock
	observers
}

func NewPlanService(repo PlanRepository, p SeatPlanner, clk clock.Clock, opts ...Option) *PlanService {
	svc := &PlanService{
		repo:      repo,
		planner:   p,
		clock:     clk,
		observers: defaultObservers(),
	}
	for _, opt := range opts {
		opt(&svc.observers)
	}
	return svc
}

type PlanResult struct {
	OccasionID  string
	Assignments []domain.Assignment
	Summary     domain.Demographics
	Unplaced    []domain.CohesionGroup
	Ordering    string
	Attempts    int
}

// PlanAndCommit seats the current candidate pool into the occasion. The
// occasion row stays locked for the whole transaction, and every insert and
// status change rolls back together on failure.
func (s *PlanService) PlanAndCommit(ctx context.Context, occasionID string) (PlanResult, error) {
	start := s.clock.Now()
	if err := validateID(occasionID); err != nil {
		s.metrics.PlanCompleted(outcomeOf(err), 0, 0, 0)
		return PlanResult{}, err
	}
	log := logging.For(ctx, s.logger).With(zap.String("occasion_id", occasionID))

	var result PlanResult
	var wrote bool
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.LockOccasion(txCtx, occasionID); err != nil {
			return err
		}
		people, err := s.repo.ListCandidates(txCtx)
		if err != nil {
			return err
		}
		occupied, err := s.repo.ListOccupiedSlots(txCtx, occasionID)
		if err != nil {
			return err
		}

		plan, err := s.planner.Plan(planner.Classify(people), occupied)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created := make([]domain.Assignment, 0, len(plan.Placements))
		for _, pl := range plan.Placements {
			a := domain.Assignment{
				ID:         newUUID(),
				OccasionID: occasionID,
				PersonID:   pl.Person.ID,
				Slot:       pl.Slot,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			wrote = true
			if err := s.repo.CreateAssignment(txCtx, a); err != nil {
				return &domain.PersistenceError{Op: "create assignment", Err: err}
			}
			if err := s.repo.UpdatePersonStatus(txCtx, pl.Person.ID, domain.PersonStatusSeated); err != nil {
				return &domain.PersistenceError{Op: "mark person seated", Err: err}
			}
			created = append(created, a)
		}

		result = PlanResult{
			OccasionID:  occasionID,
			Assignments: created,
			Summary:     plan.Summary,
			Unplaced:    plan.Unplaced,
			Ordering:    plan.Ordering,
			Attempts:    plan.Attempts,
		}
		return nil
	})
	if err != nil && wrote && !isCategorized(err) {
		err = &domain.PersistenceError{Op: "commit plan", Err: err}
	}

	elapsed := clock.Since(s.clock, start)
	s.metrics.PlanCompleted(outcomeOf(err), result.Attempts, len(result.Assignments), elapsed)
	if err != nil {
		var unsat *domain.UnsatisfiableError
		if errors.As(err, &unsat) {
			log.Warn("no plan within demographic band",
				zap.Int("female", unsat.FemaleCount),
				zap.Int("male", unsat.MaleCount),
				zap.Int("attempts", unsat.Attempts),
			)
		} else {
			log.Error("plan commit failed", zap.String("outcome", outcomeOf(err)), zap.Error(err))
		}
		return PlanResult{}, err
	}

	log.Info("plan committed",
		zap.Int("seated", len(result.Assignments)),
		zap.Int("female", result.Summary.Female),
		zap.Int("male", result.Summary.Male),
		zap.Float64("female_ratio", result.Summary.FemaleRatio()),
		zap.Int("unplaced_groups", len(result.Unplaced)),
		zap.String("ordering", result.Ordering),
		zap.Int("attempts", result.Attempts),
		zap.Duration("elapsed", elapsed),
	)
	if len(result.Unplaced) > 0 {
		log.Warn("groups left unplaced", zap.Int("groups", len(result.Unplaced)))
	}
	s.publish(ctx, events.NewChange(events.KindPlanCommitted, occasionID, s.clock.Now(), result.Assignments...))
	return result, nil
}
