package shorturl

import (
	"context"
	"time"
)

// Store defines the persistence operations for URL records. Implementations
// must run each mutating call inside a single transaction: either every row
// the call touches is committed, or none are. Operations that target exactly
// one row (DeleteOne, MarkGone, RecordClick) fail with a NotFound kind when
// zero rows match and an Ambiguous kind when more than one does.
type Store interface {
	// Ping performs a trivial read-only round trip to the backing database.
	Ping(ctx context.Context) error

	// Insert stores the given records as one all-or-nothing batch and
	// returns the materialized rows with store-assigned ids and defaults.
	Insert(ctx context.Context, records []NewURL) ([]URL, error)

	// Select returns every row matching the filter, in unspecified order.
	// An empty filter returns the whole table.
	Select(ctx context.Context, filter Filter) ([]URL, error)

	// DeleteOne removes the single row matching the filter and returns it.
	DeleteOne(ctx context.Context, filter Filter) (URL, error)

	// MarkGone soft-deletes the single row matching the filter by setting
	// is_gone and returns the updated row.
	MarkGone(ctx context.Context, filter Filter) (URL, error)

	// RecordClick registers a visit on the single row matching the filter:
	// it stores clientInfo and now, increments the click counter, and
	// returns the updated row. Concurrent clicks on the same row must
	// serialize; no increment may be lost.
	RecordClick(ctx context.Context, filter Filter, clientInfo string, now time.Time) (URL, error)
}
