package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cimillas/seatplan/internal/domain"
)

const assignmentColumns = `id, occasion_id, person_id, block_number, seat_label, created_at, updated_at`

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.OccasionID, &a.PersonID, &a.Slot.Block, &a.Slot.Seat, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s store) getOccasion(ctx context.Context, occasionID, lockClause string) (domain.Occasion, error) {
	query := `SELECT id, seq, name, day FROM occasions WHERE id = $1 ` + lockClause
	var o domain.Occasion
	err := s.queryRow(ctx, query, occasionID).Scan(&o.ID, &o.Seq, &o.Name, &o.Day)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Occasion{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Occasion{}, domain.ErrOccasionNotFound
		}
		return domain.Occasion{}, fmt.Errorf("get occasion: %w", err)
	}
	return o, nil
}

func (s store) getAssignment(ctx context.Context, id, lockClause string) (domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM seat_assignments WHERE id = $1 ` + lockClause
	a, err := scanAssignment(s.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Assignment{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, domain.ErrAssignmentNotFound
		}
		return domain.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s store) updatePersonStatus(ctx context.Context, personID string, status domain.PersonStatus) error {
	const stmt = `UPDATE persons SET status = $2 WHERE id = $1`

	tag, err := s.exec(ctx, stmt, personID, string(status))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update person status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

// mapAssignmentWriteError translates constraint failures on seat_assignments.
func mapAssignmentWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		if constraintName(err) == "seat_assignments_person_key" {
			return domain.ErrPersonSeated
		}
		return domain.ErrSlotOccupied
	case isForeignKeyViolation(err):
		if constraintName(err) == "seat_assignments_person_id_fkey" {
			return domain.ErrPersonNotFound
		}
		return domain.ErrOccasionNotFound
	case isInvalidUUID(err):
		return domain.ErrInvalidID
	case isLockFailure(err):
		return &domain.LockError{Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanPerson(row pgx.Row) (domain.Person, error) {
	var p domain.Person
	var gender, status string
	if err := row.Scan(&p.ID, &p.Name, &gender, &p.GroupID, &status); err != nil {
		return domain.Person{}, fmt.Errorf("scan person: %w", err)
	}
	p.Gender = domain.Gender(gender)
	p.Status = domain.PersonStatus(status)
	return p, nil
}
