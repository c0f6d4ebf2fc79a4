// internal/storage/record/interface.go
package record

import (
	"context"

	"github.com/futusense/futusense/internal/core"
)

// Store defines the interface for fusion record persistence. Records
// are keyed by (symbol, date); saving the same key again replaces the
// record, since a rerun recomputes the day.
type Store interface {
	// Save upserts a record under its (symbol, date) key.
	Save(ctx context.Context, rec core.FusionRecord) error

	// Get retrieves the record for a symbol on a date.
	Get(ctx context.Context, symbolID, date string) (*core.FusionRecord, error)

	// Latest retrieves the most recent record for a symbol.
	Latest(ctx context.Context, symbolID string) (*core.FusionRecord, error)

	// List retrieves records matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.FusionRecord, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing records. Dates are
// inclusive YYYY-MM-DD bounds.
type ListFilter struct {
	Symbol string
	Band   core.Band
	From   string
	To     string
	Limit  int
	Offset int
}
