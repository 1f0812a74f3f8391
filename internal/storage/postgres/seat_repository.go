package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/seatplan/internal/domain"
)

// SlotLockNamespace is the first key of the two-key advisory lock taken on an
// empty slot. The second key comes from domain.Layout.SlotLockKey.
const SlotLockNamespace int32 = 7301

var errNoTransaction = errors.New("advisory slot lock requires a transaction")

// SeatRepository backs the seat mutation protocol.
type SeatRepository struct {
	store
}

func NewSeatRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *SeatRepository {
	return &SeatRepository{store: newStore(pool, lockTimeout)}
}

func (r *SeatRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, fn)
}

// ShareLockOccasion blocks while a plan commit holds the occasion and keeps
// one from starting until this transaction ends. Mutations do not block each
// other on it.
func (r *SeatRepository) ShareLockOccasion(ctx context.Context, occasionID string) (domain.Occasion, error) {
	return r.getOccasion(ctx, occasionID, "FOR SHARE")
}

func (r *SeatRepository) GetOccasion(ctx context.Context, occasionID string) (domain.Occasion, error) {
	return r.getOccasion(ctx, occasionID, "")
}

func (r *SeatRepository) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	return r.getAssignment(ctx, id, "")
}

func (r *SeatRepository) GetAssignmentForUpdate(ctx context.Context, id string) (domain.Assignment, error) {
	return r.getAssignment(ctx, id, "FOR UPDATE")
}

// LockSlot takes a transaction-scoped advisory lock on an (occasion, slot)
// key. It is released at commit or rollback.
func (r *SeatRepository) LockSlot(ctx context.Context, key int32) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTransaction
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`, SlotLockNamespace, key); err != nil {
		if isLockFailure(err) {
			return &domain.LockError{Err: err}
		}
		return fmt.Errorf("lock slot: %w", err)
	}
	return nil
}

// FindAssignmentBySlot returns nil when the slot is free.
func (r *SeatRepository) FindAssignmentBySlot(ctx context.Context, occasionID string, slot domain.Slot) (*domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + `
FROM seat_assignments
WHERE occasion_id = $1 AND block_number = $2 AND seat_label = $3`

	a, err := scanAssignment(r.queryRow(ctx, query, occasionID, slot.Block, slot.Seat))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("find assignment by slot: %w", err)
	}
	return &a, nil
}

// SetSlot points an assignment at a new slot.
func (r *SeatRepository) SetSlot(ctx context.Context, id string, slot domain.Slot, now time.Time) error {
	const stmt = `
UPDATE seat_assignments
SET block_number = $2, seat_label = $3, updated_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, slot.Block, slot.Seat, now)
	if err != nil {
		return mapAssignmentWriteError("set slot", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *SeatRepository) DeleteAssignment(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM seat_assignments WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *SeatRepository) CountAssignmentsForPerson(ctx context.Context, personID string) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM seat_assignments WHERE person_id = $1`, personID).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return n, nil
}

func (r *SeatRepository) UpdatePersonStatus(ctx context.Context, personID string, status domain.PersonStatus) error {
	return r.updatePersonStatus(ctx, personID, status)
}

// ListAssignments returns the occasion's seat map ordered by block and seat.
func (r *SeatRepository) ListAssignments(ctx context.Context, occasionID string) ([]domain.Assignment, error) {
	if _, err := r.getOccasion(ctx, occasionID, ""); err != nil {
		return nil, err
	}

	const query = `SELECT ` + assignmentColumns + `
FROM seat_assignments
WHERE occasion_id = $1
ORDER BY block_number ASC, seat_label ASC`

	rows, err := r.query(ctx, query, occasionID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate assignments: %w", rows.Err())
	}
	return out, nil
}
