package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/seatplan/internal/testutil"
	"github.com/cimillas/seatplan/migrations"
)

func TestNames_Sorted(t *testing.T) {
	names, err := migrations.Names()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(names), 2)
	assert.IsNonDecreasing(t, names)
}

func TestApply_RecordsMigrations(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS seat_assignments, persons, occasions, schema_migrations CASCADE`)
	require.NoError(t, err)

	require.NoError(t, migrations.Apply(ctx, pool, nil))

	names, err := migrations.Names()
	require.NoError(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(names), count)

	require.NoError(t, migrations.Apply(ctx, pool, nil))

	var count2 int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count2))
	assert.Equal(t, count, count2, "re-apply must not record migrations twice")
}
