package database

import "time"

// Run is a persisted record of one optimizer invocation: its mode, the
// cache digest of its inputs, lifecycle status, and totals once solved.
// Supplemental to spec.md — added because a deployable service needs run
// history the way the teacher's ingestion_runs table does.
type Run struct {
	ID         string     `json:"id"`          // cuid2, e.g. run_xxxx
	Mode       string     `json:"mode"`        // "builtin" | "glpk"
	Digest     string     `json:"digest"`       // lp.ComputeDigest / equivalent for builtin mode
	Status     string     `json:"status"`       // "pending", "running", "completed", "failed"
	GrandTotal *float64   `json:"grand_total"`  // sourcing.Result.GrandNetTotal once solved
	GrossTotal *float64   `json:"gross_total"`  // sourcing.Result.GrossTotal once solved
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// CachedOffer is one seller's offer for one item, as scraped by
// internal/offersource and cached in Postgres alongside the local disk
// cache, keyed by the item's catalog.Item.Key().
type CachedOffer struct {
	ItemKey       string    `json:"item_key"`
	ShopName      string    `json:"shop_name"`
	UnitPrice     float64   `json:"unit_price"`
	QuantityAvail int       `json:"quantity_avail"`
	Condition     string    `json:"condition"`
	Location      string    `json:"location"`
	MinBuy        float64   `json:"min_buy"`
	FetchedAt     time.Time `json:"fetched_at"`
}
