package ledger

import (
	"context"

	"driverlog/internal/core"
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		Append(ctx context.Context, rec core.WorkRecord) (ref string, err error)
	}

	RecordDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// RecordLister returns the full record collection for a user. The
	// aggregation engine is pure; callers fetch the collection here and
	// pass it in.
	RecordLister interface {
		ListRecords(ctx context.Context) ([]core.WorkRecord, error)
	}
)
