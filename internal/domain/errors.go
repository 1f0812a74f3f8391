package domain

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors below match one of these through errors.Is.
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrConstraintUnsatisfiable = errors.New("constraint unsatisfiable")
	ErrPersistence             = errors.New("persistence error")
	ErrLock                    = errors.New("lock error")
)

var (
	ErrInvalidID          = newValidationError("invalid id")
	ErrInvalidBlock       = newValidationError("invalid block number")
	ErrInvalidSeatLabel   = newValidationError("invalid seat label")
	ErrTargetRequired     = newValidationError("target assignment or block and seat label required")
	ErrAmbiguousTarget    = newValidationError("target assignment and block/seat label are mutually exclusive")
	ErrSameAssignment     = newValidationError("source and target assignment are the same")
	ErrSameSlot           = newValidationError("assignment already occupies the target slot")
	ErrCrossOccasionSwap  = newValidationError("assignments belong to different occasions")
	ErrInvalidLayout      = newValidationError("invalid venue layout")
	ErrInvalidTargetRange = newValidationError("invalid female ratio range")
	ErrNameRequired       = newValidationError("name is required")
	ErrInvalidGender      = newValidationError("gender must be female or male")
	ErrInvalidStatus      = newValidationError("status must be candidate or seated")

	ErrAssignmentNotFound = newNotFoundError("assignment not found")
	ErrOccasionNotFound   = newNotFoundError("occasion not found")
	ErrPersonNotFound     = newNotFoundError("person not found")

	ErrSlotOccupied    = newConflictError("slot already occupied")
	ErrPersonSeated    = newConflictError("person already seated for occasion")
	ErrAssignmentMoved = newConflictError("assignment changed since validation")
	ErrNoCandidates    = newConflictError("no candidates available")
)

type categorizedError struct {
	msg      string
	category error
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Is(target error) bool { return target == e.category }

func newValidationError(msg string) error {
	return &categorizedError{msg: msg, category: ErrValidation}
}

func newNotFoundError(msg string) error {
	return &categorizedError{msg: msg, category: ErrNotFound}
}

func newConflictError(msg string) error {
	return &categorizedError{msg: msg, category: ErrConflict}
}

// ConflictError reports a slot or assignment whose state no longer matches
// what the caller validated against.
type ConflictError struct {
	Reason error
	// Conflicting is the assignment currently holding the contested slot or
	// the locked row as it was found, when one exists.
	Conflicting *Assignment
}

func (e *ConflictError) Error() string {
	if e.Conflicting != nil {
		return fmt.Sprintf("%v: assignment %s at %s", e.Reason, e.Conflicting.ID, e.Conflicting.Slot)
	}
	return e.Reason.Error()
}

func (e *ConflictError) Unwrap() error { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// UnsatisfiableError is returned when no plan within the search budget meets
// the female ratio band. Counts describe the candidate pool.
type UnsatisfiableError struct {
	FemaleCount      int
	MaleCount        int
	Total            int
	FemalePercentage float64
	TargetRange      RatioBand
	Attempts         int
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf(
		"no seating plan within female ratio %s after %d attempts (pool: %d female, %d male, %.1f%% female)",
		e.TargetRange, e.Attempts, e.FemaleCount, e.MaleCount, e.FemalePercentage,
	)
}

func (e *UnsatisfiableError) Is(target error) bool { return target == ErrConstraintUnsatisfiable }

// PersistenceError wraps a storage failure that happened while committing a plan.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// LockError wraps a lock timeout, deadlock or serialization failure. The
// transaction was rolled back, so retrying is safe.
type LockError struct {
	Err error
}

func (e *LockError) Error() string { return fmt.Sprintf("lock: %v", e.Err) }

func (e *LockError) Unwrap() error { return e.Err }

func (e *LockError) Is(target error) bool { return target == ErrLock }
