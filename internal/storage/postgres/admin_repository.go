package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/seatplan/internal/domain"
)

// AdminRepository manages occasions and the person roster.
type AdminRepository struct {
	store
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{store: newStore(pool, 0)}
}

// CreateOccasion inserts the occasion and returns it with its sequence number.
func (r *AdminRepository) CreateOccasion(ctx context.Context, occasion domain.Occasion) (domain.Occasion, error) {
	const stmt = `
INSERT INTO occasions (id, name, day)
VALUES ($1, $2, $3)
RETURNING seq`
	err := r.queryRow(ctx, stmt, occasion.ID, occasion.Name, occasion.Day).Scan(&occasion.Seq)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Occasion{}, domain.ErrInvalidID
		}
		return domain.Occasion{}, fmt.Errorf("create occasion: %w", err)
	}
	return occasion, nil
}

func (r *AdminRepository) ListOccasions(ctx context.Context) ([]domain.Occasion, error) {
	const query = `
SELECT id, seq, name, day
FROM occasions
ORDER BY day ASC, seq ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list occasions: %w", err)
	}
	defer rows.Close()

	var occasions []domain.Occasion
	for rows.Next() {
		var o domain.Occasion
		if err := rows.Scan(&o.ID, &o.Seq, &o.Name, &o.Day); err != nil {
			return nil, fmt.Errorf("scan occasion: %w", err)
		}
		occasions = append(occasions, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate occasions: %w", rows.Err())
	}
	return occasions, nil
}

func (r *AdminRepository) CreatePerson(ctx context.Context, person domain.Person, createdAt time.Time) error {
	const stmt = `
INSERT INTO persons (id, name, gender, group_id, status, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	_, err := r.exec(ctx, stmt, person.ID, person.Name, string(person.Gender), person.GroupID, string(person.Status), createdAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// ListPersons returns people in creation order, optionally filtered by status.
func (r *AdminRepository) ListPersons(ctx context.Context, status domain.PersonStatus) ([]domain.Person, error) {
	const query = `
SELECT id, name, gender, COALESCE(group_id, ''), status
FROM persons
WHERE $1 = '' OR status = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
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
		return nil, fmt.Errorf("iterate persons: %w", rows.Err())
	}
	return people, nil
}
