package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/seatplan/internal/domain"
)

// PlanRepository backs the plan commit: it reads the candidate pool and the
// occasion's occupied slots and writes the new assignments, all inside the
// caller's transaction.
type PlanRepository struct {
	store
}

func NewPlanRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *PlanRepository {
	return &PlanRepository{store: newStore(pool, lockTimeout)}
}

func (r *PlanRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, fn)
}

// LockOccasion takes the occasion row exclusively. Seat mutations share-lock
// the same row, so a running commit and a swap on one occasion never overlap.
func (r *PlanRepository) LockOccasion(ctx context.Context, occasionID string) (domain.Occasion, error) {
	return r.getOccasion(ctx, occasionID, "FOR UPDATE")
}

func (r *PlanRepository) ListCandidates(ctx context.Context) ([]domain.Person, error) {
	const query = `
SELECT id, name, gender, COALESCE(group_id, ''), status
FROM persons
WHERE status = 'candidate'
ORDER BY created_at ASC, id ASC
FOR UPDATE`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var people []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}
	return people, nil
}

func (r *PlanRepository) ListOccupiedSlots(ctx context.Context, occasionID string) ([]domain.Slot, error) {
	const query = `
SELECT block_number, seat_label
FROM seat_assignments
WHERE occasion_id = $1 AND block_number > 0`

	rows, err := r.query(ctx, query, occasionID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list occupied slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.Block, &s.Seat); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slots: %w", rows.Err())
	}
	return slots, nil
}

func (r *PlanRepository) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	const stmt = `
INSERT INTO seat_assignments (id, occasion_id, person_id, block_number, seat_label, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, a.ID, a.OccasionID, a.PersonID, a.Slot.Block, a.Slot.Seat, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapAssignmentWriteError("create assignment", err)
	}
	return nil
}

func (r *PlanRepository) UpdatePersonStatus(ctx context.Context, personID string, status domain.PersonStatus) error {
	return r.updatePersonStatus(ctx, personID, status)
}
