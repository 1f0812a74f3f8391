package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/events"
)

const (
	asgAlice = "0b8e2c52-0000-4000-8000-000000000001"
	asgBob   = "0b8e2c52-0000-4000-8000-000000000002"
	asgCarol = "0b8e2c52-0000-4000-8000-000000000003"
	asgOther = "0b8e2c52-0000-4000-8000-000000000009"
	asgNone  = "0b8e2c52-0000-4000-8000-00000000ffff"
)

var (
	slotA1 = domain.Slot{Block: 1, Seat: "A1"}
	slotA2 = domain.Slot{Block: 1, Seat: "A2"}
	slotB1 = domain.Slot{Block: 2, Seat: "B1"}
)

// seatFixture seats alice at 1/A1 and bob at 1/A2 for occasion A (seq 3),
// and carol at 1/A1 for occasion B.
func seatFixture() *fakeStore {
	store := newFakeStore()
	store.addOccasion(occasionA, 3)
	store.addOccasion(occasionB, 4)
	for _, id := range []string{"alice", "bob", "carol"} {
		store.addPerson(domain.Person{ID: id, Name: id, Gender: domain.GenderFemale})
	}
	store.addAssignment(domain.Assignment{ID: asgAlice, OccasionID: occasionA, PersonID: "alice", Slot: slotA1})
	store.addAssignment(domain.Assignment{ID: asgBob, OccasionID: occasionA, PersonID: "bob", Slot: slotA2})
	store.addAssignment(domain.Assignment{ID: asgCarol, OccasionID: occasionB, PersonID: "carol", Slot: slotA1})
	return store
}

func newTestSeatService(store *fakeStore, opts ...Option) *SeatService {
	return NewSeatService(store, domain.DefaultLayout(), clock.NewFixed(fixedNow), opts...)
}

func intPtr(v int) *int { return &v }

func TestSeatService_Swap(t *testing.T) {
	t.Parallel()

	t.Run("exchanges slots through a parking slot", func(t *testing.T) {
		store := seatFixture()
		pub := &recordingPublisher{}
		svc := newTestSeatService(store, WithPublisher(pub))

		res, err := svc.SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgBob,
			TargetAssignmentID: asgAlice,
		})
		require.NoError(t, err)
		assert.Equal(t, ReseatSwap, res.Kind)
		require.Len(t, res.Assignments, 2)
		assert.Equal(t, slotA1, res.Assignments[0].Slot)
		assert.Equal(t, slotA2, res.Assignments[1].Slot)

		assert.Equal(t, slotA2, store.assignments[asgAlice].Slot)
		assert.Equal(t, slotA1, store.assignments[asgBob].Slot)
		assert.Equal(t, fixedNow, store.assignments[asgAlice].UpdatedAt)

		require.Len(t, store.setSlots, 3)
		assert.Equal(t, domain.ParkingBlock, store.setSlots[0].Block)
		assert.True(t, strings.HasPrefix(store.setSlots[0].Seat, "~"))

		require.Len(t, pub.changes, 1)
		assert.Equal(t, events.KindSeatSwapped, pub.changes[0].Kind)
		assert.Equal(t, occasionA, pub.changes[0].OccasionID)
	})

	t.Run("swapping twice restores the original seating", func(t *testing.T) {
		store := seatFixture()
		svc := newTestSeatService(store)
		in := ReseatInput{SourceAssignmentID: asgAlice, TargetAssignmentID: asgBob}

		_, err := svc.SwapOrMove(context.Background(), in)
		require.NoError(t, err)
		_, err = svc.SwapOrMove(context.Background(), in)
		require.NoError(t, err)

		assert.Equal(t, slotA1, store.assignments[asgAlice].Slot)
		assert.Equal(t, slotA2, store.assignments[asgBob].Slot)
	})

	t.Run("rejects assignments from different occasions", func(t *testing.T) {
		store := seatFixture()
		_, err := newTestSeatService(store).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			TargetAssignmentID: asgCarol,
		})
		assert.ErrorIs(t, err, domain.ErrCrossOccasionSwap)
		assert.Empty(t, store.setSlots)
	})

	t.Run("rejects swapping with itself", func(t *testing.T) {
		_, err := newTestSeatService(seatFixture()).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			TargetAssignmentID: asgAlice,
		})
		assert.ErrorIs(t, err, domain.ErrSameAssignment)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := newTestSeatService(seatFixture()).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			TargetAssignmentID: asgNone,
		})
		assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("aborts when a row changed after validation", func(t *testing.T) {
		store := seatFixture()
		store.beforeLockFor = func(id string) {
			if id == asgBob {
				a := store.assignments[asgBob]
				a.Slot = domain.Slot{Block: 1, Seat: "A3"}
				store.assignments[asgBob] = a
			}
		}
		met := &recordingMetrics{}

		_, err := newTestSeatService(store, WithMetrics(met)).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			TargetAssignmentID: asgBob,
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.ErrorIs(t, err, domain.ErrAssignmentMoved)
		require.NotNil(t, conflict.Conflicting)
		assert.Equal(t, asgBob, conflict.Conflicting.ID)
		assert.Equal(t, slotA1, store.assignments[asgAlice].Slot)
		assert.Empty(t, store.setSlots)
		assert.Equal(t, []metricCall{{op: "swap", outcome: OutcomeConflict}}, met.calls)
	})
}

func TestSeatService_Move(t *testing.T) {
	t.Parallel()

	t.Run("moves into an empty slot under its advisory lock", func(t *testing.T) {
		store := seatFixture()
		pub := &recordingPublisher{}

		res, err := newTestSeatService(store, WithPublisher(pub)).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			Block:              intPtr(2),
			Seat:               "B1",
		})
		require.NoError(t, err)
		assert.Equal(t, ReseatMove, res.Kind)
		require.Len(t, res.Assignments, 1)
		assert.Equal(t, slotB1, res.Assignments[0].Slot)
		assert.Equal(t, slotB1, store.assignments[asgAlice].Slot)
		// seq 3 * 154 slots + ordinal of 2/B1 (22 + 5).
		assert.Equal(t, []int32{489}, store.lockedSlots)
		require.Len(t, pub.changes, 1)
		assert.Equal(t, events.KindSeatMoved, pub.changes[0].Kind)
	})

	t.Run("occupied target reports the occupant", func(t *testing.T) {
		store := seatFixture()
		_, err := newTestSeatService(store).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			Block:              intPtr(1),
			Seat:               "A2",
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.ErrorIs(t, err, domain.ErrSlotOccupied)
		require.NotNil(t, conflict.Conflicting)
		assert.Equal(t, asgBob, conflict.Conflicting.ID)
		assert.Empty(t, store.lockedSlots)
	})

	t.Run("slot taken between pre-check and lock", func(t *testing.T) {
		store := seatFixture()
		store.beforeLockFor = func(string) {
			store.assignments[asgOther] = domain.Assignment{
				ID: asgOther, OccasionID: occasionA, PersonID: "other", Slot: slotB1,
			}
		}
		_, err := newTestSeatService(store).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			Block:              intPtr(2),
			Seat:               "B1",
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, asgOther, conflict.Conflicting.ID)
		assert.Equal(t, slotA1, store.assignments[asgAlice].Slot)
	})

	t.Run("moving onto its own slot", func(t *testing.T) {
		_, err := newTestSeatService(seatFixture()).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			Block:              intPtr(1),
			Seat:               "A1",
		})
		assert.ErrorIs(t, err, domain.ErrSameSlot)
	})

	t.Run("lock failure is retryable", func(t *testing.T) {
		store := seatFixture()
		store.lockSlotErr = &domain.LockError{Err: errBoom}
		met := &recordingMetrics{}

		_, err := newTestSeatService(store, WithMetrics(met)).SwapOrMove(context.Background(), ReseatInput{
			SourceAssignmentID: asgAlice,
			Block:              intPtr(2),
			Seat:               "B1",
		})
		assert.ErrorIs(t, err, domain.ErrLock)
		assert.Equal(t, slotA1, store.assignments[asgAlice].Slot)
		assert.Equal(t, OutcomeLock, met.calls[0].outcome)
	})
}

func TestSeatService_ValidatesBeforeStorage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   ReseatInput
		want error
	}{
		{"bad source id", ReseatInput{SourceAssignmentID: "x", TargetAssignmentID: asgBob}, domain.ErrInvalidID},
		{"bad target id", ReseatInput{SourceAssignmentID: asgAlice, TargetAssignmentID: "nope"}, domain.ErrInvalidID},
		{"no target", ReseatInput{SourceAssignmentID: asgAlice}, domain.ErrTargetRequired},
		{"block without seat", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(1)}, domain.ErrTargetRequired},
		{"seat without block", ReseatInput{SourceAssignmentID: asgAlice, Seat: "A1"}, domain.ErrTargetRequired},
		{"both targets", ReseatInput{SourceAssignmentID: asgAlice, TargetAssignmentID: asgBob, Block: intPtr(1), Seat: "A3"}, domain.ErrAmbiguousTarget},
		{"block zero", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(0), Seat: "A1"}, domain.ErrInvalidBlock},
		{"block eight", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(8), Seat: "A1"}, domain.ErrInvalidBlock},
		{"row F", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(1), Seat: "F1"}, domain.ErrInvalidSeatLabel},
		{"seat past row end", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(1), Seat: "C5"}, domain.ErrInvalidSeatLabel},
		{"parking label", ReseatInput{SourceAssignmentID: asgAlice, Block: intPtr(1), Seat: "~x"}, domain.ErrInvalidSeatLabel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := seatFixture()
			store.shareLockErr = errBoom
			_, err := newTestSeatService(store).SwapOrMove(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, store.setSlots)
		})
	}
}

func TestSeatService_Release(t *testing.T) {
	t.Parallel()

	t.Run("returns the person to the pool", func(t *testing.T) {
		store := seatFixture()
		pub := &recordingPublisher{}

		err := newTestSeatService(store, WithPublisher(pub)).Release(context.Background(), asgAlice)
		require.NoError(t, err)
		assert.NotContains(t, store.assignments, asgAlice)
		assert.Equal(t, domain.PersonStatusCandidate, store.persons["alice"].Status)
		require.Len(t, pub.changes, 1)
		assert.Equal(t, events.KindSeatReleased, pub.changes[0].Kind)
	})

	t.Run("person seated elsewhere stays seated", func(t *testing.T) {
		store := seatFixture()
		store.addAssignment(domain.Assignment{ID: asgOther, OccasionID: occasionB, PersonID: "alice", Slot: slotA2})

		require.NoError(t, newTestSeatService(store).Release(context.Background(), asgAlice))
		assert.Equal(t, domain.PersonStatusSeated, store.persons["alice"].Status)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		err := newTestSeatService(seatFixture()).Release(context.Background(), asgNone)
		assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
	})
}

func TestSeatService_ListAssignments(t *testing.T) {
	t.Parallel()

	svc := newTestSeatService(seatFixture())
	got, err := svc.ListAssignments(context.Background(), occasionA)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.ListAssignments(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.ListAssignments(context.Background(), "6f1c1b4e-8d0a-4c61-9f1e-2b7d3c9a0fff")
	assert.ErrorIs(t, err, domain.ErrOccasionNotFound)
}
