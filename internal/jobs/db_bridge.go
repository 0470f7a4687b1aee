package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// cleanupOldRunsImpl deletes completed/failed runs older than cutoff.
// Returns the number of rows deleted.
func cleanupOldRunsImpl(ctx context.Context, cutoff time.Time) (int, error) {
	pool := getPool()

	result, err := pool.Exec(ctx, `
		DELETE FROM runs
		WHERE created_at < $1 AND status IN ('completed', 'failed')
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// getPool returns the database connection pool
// This is a bridge to the database package to avoid circular dependencies
func getPool() *pgxpool.Pool {
	return dbPoolGetter()
}

// dbPoolGetter is a function that returns the database pool
// This will be set by the database package initialization
var dbPoolGetter func() *pgxpool.Pool

// RegisterDBPoolGetter registers the database pool getter function
// This should be called from the database package initialization
func RegisterDBPoolGetter(getter func() *pgxpool.Pool) {
	dbPoolGetter = getter
}
