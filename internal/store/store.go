// Package store reads raw usage rows from the per-service wide-column
// tables. It knows nothing about record shapes beyond the scan filters the
// aggregation engine asks for.
package store

import (
	"context"
)

// Filter narrows a usage table scan. The zero value scans the whole table.
type Filter struct {
	// SortKeyField names the attribute matched by Contains. Required when
	// Contains is set; per-service because key attribute names vary.
	SortKeyField string
	// Contains keeps rows whose sort key contains this substring, in
	// practice a "YYYY-MM" value.
	Contains string
	// UserID, when set, keeps rows whose userId attribute equals it.
	UserID string
}

// UsageStore fetches raw usage records and user directory rows. No index is
// assumed; implementations may fall back to full table scans.
type UsageStore interface {
	// FetchUsageRecords returns every record in the table matching the
	// filter. Errors are propagated to the caller, which decides whether to
	// recover (fan-out paths) or fail the request (single-entity paths).
	FetchUsageRecords(ctx context.Context, table string, filter Filter) ([]Record, error)

	// SearchUserByEmail scans a user directory table for the row with the
	// given email. A nil record with nil error means no such user.
	SearchUserByEmail(ctx context.Context, table string, email string) (Record, error)
}
