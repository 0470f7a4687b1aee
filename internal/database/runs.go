package database

import (
	"context"
	"time"

	"github.com/dornbi/bltools-go/internal/pkg/cuid2"
)

// NewRunID generates a time-sortable run identifier, e.g. run_1a2b3c...
func NewRunID() string {
	return cuid2.GeneratePrefixedId("run", cuid2.PrefixedIdOptions{})
}

// CreateRun inserts a new run row in "pending" status.
func CreateRun(ctx context.Context, run *Run) error {
	pool := Pool()
	run.CreatedAt = time.Now()
	if run.Status == "" {
		run.Status = "pending"
	}

	query := `
		INSERT INTO runs (id, mode, digest, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := pool.Exec(ctx, query, run.ID, run.Mode, run.Digest, run.Status, run.CreatedAt)
	return err
}

// MarkRunRunning transitions a run to "running".
func MarkRunRunning(ctx context.Context, id string) error {
	pool := Pool()
	_, err := pool.Exec(ctx, `UPDATE runs SET status = 'running' WHERE id = $1`, id)
	return err
}

// CompleteRun records a run's final totals and marks it "completed".
func CompleteRun(ctx context.Context, id string, grandTotal, grossTotal float64) error {
	pool := Pool()
	query := `
		UPDATE runs
		SET status = 'completed', grand_total = $2, gross_total = $3, finished_at = $4
		WHERE id = $1
	`
	_, err := pool.Exec(ctx, query, id, grandTotal, grossTotal, time.Now())
	return err
}

// FailRun records a run's failure reason and marks it "failed".
func FailRun(ctx context.Context, id string, runErr error) error {
	pool := Pool()
	msg := runErr.Error()
	query := `
		UPDATE runs
		SET status = 'failed', error = $2, finished_at = $3
		WHERE id = $1
	`
	_, err := pool.Exec(ctx, query, id, msg, time.Now())
	return err
}

// GetRun retrieves a single run by ID.
func GetRun(ctx context.Context, id string) (*Run, error) {
	pool := Pool()
	query := `
		SELECT id, mode, digest, status, grand_total, gross_total, error, created_at, finished_at
		FROM runs
		WHERE id = $1
	`
	row := pool.QueryRow(ctx, query, id)

	var run Run
	if err := row.Scan(&run.ID, &run.Mode, &run.Digest, &run.Status, &run.GrandTotal,
		&run.GrossTotal, &run.Error, &run.CreatedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	pool := Pool()
	query := `
		SELECT id, mode, digest, status, grand_total, gross_total, error, created_at, finished_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Mode, &run.Digest, &run.Status, &run.GrandTotal,
			&run.GrossTotal, &run.Error, &run.CreatedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRunsOlderThan removes completed/failed runs created before cutoff,
// used by jobs.CleanupRuns.
func DeleteRunsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	pool := Pool()
	tag, err := pool.Exec(ctx, `
		DELETE FROM runs
		WHERE created_at < $1 AND status IN ('completed', 'failed')
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpsertCachedOffers replaces the cached offer set for one item, used by
// internal/offersource after a successful scrape.
func UpsertCachedOffers(ctx context.Context, itemKey string, offers []CachedOffer) error {
	pool := Pool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cached_offers WHERE item_key = $1`, itemKey); err != nil {
		return err
	}

	now := time.Now()
	for _, o := range offers {
		_, err := tx.Exec(ctx, `
			INSERT INTO cached_offers
				(item_key, shop_name, unit_price, quantity_avail, condition, location, min_buy, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, itemKey, o.ShopName, o.UnitPrice, o.QuantityAvail, o.Condition, o.Location, o.MinBuy, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetCachedOffers returns the cached offers for one item, newest fetch first.
func GetCachedOffers(ctx context.Context, itemKey string) ([]CachedOffer, error) {
	pool := Pool()
	rows, err := pool.Query(ctx, `
		SELECT item_key, shop_name, unit_price, quantity_avail, condition, location, min_buy, fetched_at
		FROM cached_offers
		WHERE item_key = $1
		ORDER BY fetched_at DESC
	`, itemKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]CachedOffer, 0)
	for rows.Next() {
		var o CachedOffer
		if err := rows.Scan(&o.ItemKey, &o.ShopName, &o.UnitPrice, &o.QuantityAvail,
			&o.Condition, &o.Location, &o.MinBuy, &o.FetchedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}
