package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/events"
	"github.com/cimillas/seatplan/internal/logging"
)

type SeatRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ShareLockOccasion(ctx context.Context, occasionID string) (domain.Occasion, error)
	GetAssignment(ctx context.Context, id string) (domain.Assignment, error)
	GetAssignmentForUpdate(ctx context.Context, id string) (domain.Assignment, error)
	LockSlot(ctx context.Context, key int32) error
	FindAssignmentBySlot(ctx context.Context, occasionID string, slot domain.Slot) (*domain.Assignment, error)
	SetSlot(ctx context.Context, id string, slot domain.Slot, now time.Time) error
	DeleteAssignment(ctx context.Context, id string) error
	CountAssignmentsForPerson(ctx context.Context, personID string) (int, error)
	UpdatePersonStatus(ctx context.Context, personID string, status domain.PersonStatus) error
	ListAssignments(ctx context.Context, occasionID string) ([]domain.Assignment, error)
}

// SeatService swaps, moves and releases seated people. Every mutation runs in
// one transaction that locks what it touches, so an aborted attempt leaves no
// trace and can be retried.
type SeatService struct {
	repo   SeatRepository
	layout domain.Layout
	clock  clock.Clock
	observers
}

func NewSeatService(repo SeatRepository, layout domain.Layout, clk clock.Clock, opts ...Option) *SeatService {
	svc := &SeatService{
		repo:      repo,
		layout:    layout,
		clock:     clk,
		observers: defaultObservers(),
	}
	for _, opt := range opts {
		opt(&svc.observers)
	}
	return svc
}

// ReseatInput names the source assignment and either a second assignment to
// swap with or an empty slot to move into.
type ReseatInput struct {
	SourceAssignmentID string
	TargetAssignmentID string
	Block              *int
	Seat               string
}

type ReseatKind string

const (
	ReseatSwap ReseatKind = "swap"
	ReseatMove ReseatKind = "move"
)

type ReseatResult struct {
	Kind        ReseatKind
	Assignments []domain.Assignment
}

// SwapOrMove validates the request without touching storage, then performs a
// swap or a move.
func (s *SeatService) SwapOrMove(ctx context.Context, in ReseatInput) (ReseatResult, error) {
	start := s.clock.Now()
	kind, target, err := s.validate(in)
	op := string(kind)
	if op == "" {
		op = "reseat"
	}

	var res ReseatResult
	if err == nil {
		switch kind {
		case ReseatSwap:
			res, err = s.swap(ctx, in.SourceAssignmentID, in.TargetAssignmentID)
		default:
			res, err = s.move(ctx, in.SourceAssignmentID, target)
		}
	}

	s.metrics.MutationCompleted(op, outcomeOf(err), clock.Since(s.clock, start))
	log := logging.For(ctx, s.logger).With(
		zap.String("op", op),
		zap.String("source_assignment_id", in.SourceAssignmentID),
	)
	if err != nil {
		fields := []zap.Field{zap.String("outcome", outcomeOf(err)), zap.Error(err)}
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && conflict.Conflicting != nil {
			fields = append(fields, zap.String("conflicting_assignment_id", conflict.Conflicting.ID))
		}
		log.Info("reseat rejected", fields...)
		return ReseatResult{}, err
	}
	log.Info("reseat committed", zap.Int("assignments", len(res.Assignments)))

	changeKind := events.KindSeatMoved
	if kind == ReseatSwap {
		changeKind = events.KindSeatSwapped
	}
	s.publish(ctx, events.NewChange(changeKind, res.Assignments[0].OccasionID, s.clock.Now(), res.Assignments...))
	return res, nil
}

func (s *SeatService) validate(in ReseatInput) (ReseatKind, domain.Slot, error) {
	if err := validateID(in.SourceAssignmentID); err != nil {
		return "", domain.Slot{}, err
	}
	hasTarget := in.TargetAssignmentID != ""
	hasSlot := in.Block != nil || in.Seat != ""
	switch {
	case hasTarget && hasSlot:
		return "", domain.Slot{}, domain.ErrAmbiguousTarget
	case hasTarget:
		if err := validateID(in.TargetAssignmentID); err != nil {
			return ReseatSwap, domain.Slot{}, err
		}
		if in.TargetAssignmentID == in.SourceAssignmentID {
			return ReseatSwap, domain.Slot{}, domain.ErrSameAssignment
		}
		return ReseatSwap, domain.Slot{}, nil
	case hasSlot:
		if in.Block == nil || in.Seat == "" {
			return ReseatMove, domain.Slot{}, domain.ErrTargetRequired
		}
		slot := domain.Slot{Block: *in.Block, Seat: in.Seat}
		if err := s.layout.ValidateSlot(slot); err != nil {
			return ReseatMove, domain.Slot{}, err
		}
		return ReseatMove, slot, nil
	default:
		return "", domain.Slot{}, domain.ErrTargetRequired
	}
}

func (s *SeatService) swap(ctx context.Context, sourceID, targetID string) (ReseatResult, error) {
	src, err := s.repo.GetAssignment(ctx, sourceID)
	if err != nil {
		return ReseatResult{}, err
	}
	dst, err := s.repo.GetAssignment(ctx, targetID)
	if err != nil {
		return ReseatResult{}, err
	}
	if src.OccasionID != dst.OccasionID {
		return ReseatResult{}, domain.ErrCrossOccasionSwap
	}

	var res ReseatResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.ShareLockOccasion(txCtx, src.OccasionID); err != nil {
			return err
		}

		// Lock in id order so two swaps over the same pair cannot deadlock.
		first, second := src.ID, dst.ID
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]domain.Assignment, 2)
		for _, id := range []string{first, second} {
			a, err := s.repo.GetAssignmentForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			locked[id] = a
		}
		for _, snap := range []domain.Assignment{src, dst} {
			if cur := locked[snap.ID]; !cur.SameState(snap) {
				return &domain.ConflictError{Reason: domain.ErrAssignmentMoved, Conflicting: &cur}
			}
		}

		now := s.clock.Now()
		parking := domain.Slot{Block: domain.ParkingBlock, Seat: "~" + newUUID()}
		if err := s.setSlot(txCtx, src.ID, parking, now); err != nil {
			return err
		}
		if err := s.setSlot(txCtx, dst.ID, src.Slot, now); err != nil {
			return err
		}
		if err := s.setSlot(txCtx, src.ID, dst.Slot, now); err != nil {
			return err
		}

		movedSrc, movedDst := src, dst
		movedSrc.Slot, movedDst.Slot = dst.Slot, src.Slot
		movedSrc.UpdatedAt, movedDst.UpdatedAt = now, now
		res = ReseatResult{Kind: ReseatSwap, Assignments: []domain.Assignment{movedSrc, movedDst}}
		return nil
	})
	if err != nil {
		return ReseatResult{}, err
	}
	return res, nil
}

func (s *SeatService) move(ctx context.Context, sourceID string, target domain.Slot) (ReseatResult, error) {
	src, err := s.repo.GetAssignment(ctx, sourceID)
	if err != nil {
		return ReseatResult{}, err
	}
	if src.Slot == target {
		return ReseatResult{}, domain.ErrSameSlot
	}
	if occupant, err := s.repo.FindAssignmentBySlot(ctx, src.OccasionID, target); err != nil {
		return ReseatResult{}, err
	} else if occupant != nil {
		return ReseatResult{}, &domain.ConflictError{Reason: domain.ErrSlotOccupied, Conflicting: occupant}
	}

	var res ReseatResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		occasion, err := s.repo.ShareLockOccasion(txCtx, src.OccasionID)
		if err != nil {
			return err
		}
		cur, err := s.repo.GetAssignmentForUpdate(txCtx, src.ID)
		if err != nil {
			return err
		}
		if !cur.SameState(src) {
			return &domain.ConflictError{Reason: domain.ErrAssignmentMoved, Conflicting: &cur}
		}

		// An empty slot has no row to lock; serialise claims on its key.
		key, err := s.layout.SlotLockKey(occasion.Seq, target)
		if err != nil {
			return err
		}
		if err := s.repo.LockSlot(txCtx, key); err != nil {
			return err
		}
		occupant, err := s.repo.FindAssignmentBySlot(txCtx, src.OccasionID, target)
		if err != nil {
			return err
		}
		if occupant != nil {
			return &domain.ConflictError{Reason: domain.ErrSlotOccupied, Conflicting: occupant}
		}

		now := s.clock.Now()
		if err := s.setSlot(txCtx, src.ID, target, now); err != nil {
			return err
		}
		moved := cur
		moved.Slot = target
		moved.UpdatedAt = now
		res = ReseatResult{Kind: ReseatMove, Assignments: []domain.Assignment{moved}}
		return nil
	})
	if err != nil {
		return ReseatResult{}, err
	}
	return res, nil
}

func (s *SeatService) setSlot(ctx context.Context, id string, slot domain.Slot, now time.Time) error {
	err := s.repo.SetSlot(ctx, id, slot, now)
	if errors.Is(err, domain.ErrSlotOccupied) {
		return &domain.ConflictError{Reason: domain.ErrSlotOccupied}
	}
	return err
}

// Release deletes an assignment. A person left without any assignment goes
// back to the candidate pool.
func (s *SeatService) Release(ctx context.Context, assignmentID string) error {
	start := s.clock.Now()
	err := s.release(ctx, assignmentID)
	s.metrics.MutationCompleted("release", outcomeOf(err), clock.Since(s.clock, start))
	return err
}

func (s *SeatService) release(ctx context.Context, assignmentID string) error {
	if err := validateID(assignmentID); err != nil {
		return err
	}
	a, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.ShareLockOccasion(txCtx, a.OccasionID); err != nil {
			return err
		}
		if _, err := s.repo.GetAssignmentForUpdate(txCtx, a.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteAssignment(txCtx, a.ID); err != nil {
			return err
		}
		remaining, err := s.repo.CountAssignmentsForPerson(txCtx, a.PersonID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return s.repo.UpdatePersonStatus(txCtx, a.PersonID, domain.PersonStatusCandidate)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.For(ctx, s.logger).Info("assignment released",
		zap.String("assignment_id", a.ID),
		zap.String("occasion_id", a.OccasionID),
	)
	s.publish(ctx, events.NewChange(events.KindSeatReleased, a.OccasionID, s.clock.Now(), a))
	return nil
}

// ListAssignments returns the occasion's current seat map.
func (s *SeatService) ListAssignments(ctx context.Context, occasionID string) ([]domain.Assignment, error) {
	if err := validateID(occasionID); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, occasionID)
}
