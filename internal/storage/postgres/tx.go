package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/seatplan/internal/domain"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateInvalidText         = "22P02"
	sqlStateSerialization       = "40001"
	sqlStateDeadlock            = "40P01"
	sqlStateLockNotAvailable    = "55P03"
)

// DefaultLockTimeout bounds how long a transaction waits for a row or
// advisory lock before failing with a retryable lock error.
const DefaultLockTimeout = 5 * time.Second

type txKey struct{}

// store is shared by the repositories: it runs statements on the transaction
// carried by ctx when there is one, and on the pool otherwise.
type store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func newStore(pool *pgxpool.Pool, lockTimeout time.Duration) store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return store{pool: pool, lockTimeout: lockTimeout}
}

func (s store) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	timeout := strconv.FormatInt(s.lockTimeout.Milliseconds(), 10) + "ms"
	if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("set lock timeout: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return mapLockError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapLockError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func mapLockError(err error) error {
	var lockErr *domain.LockError
	if errors.As(err, &lockErr) {
		return err
	}
	if isLockFailure(err) {
		return &domain.LockError{Err: err}
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == sqlStateUniqueViolation }

func isForeignKeyViolation(err error) bool { return pgCode(err) == sqlStateForeignKeyViolation }

func isInvalidUUID(err error) bool { return pgCode(err) == sqlStateInvalidText }

func isLockFailure(err error) bool {
	switch pgCode(err) {
	case sqlStateDeadlock, sqlStateLockNotAvailable, sqlStateSerialization:
		return true
	}
	return false
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
