// Package sources defines where the dashboard's record set comes from.
package sources

import (
	"context"
	"errors"

	"spendboard/internal/core"
)

// ErrNotConfigured is returned by sources missing required settings.
var ErrNotConfigured = errors.New("record source not configured")

// Ports for inbound record adapters.
type (
	// RecordSource loads the complete record set. Every call returns a fresh
	// snapshot; callers must not assume the slice is shared or cached.
	RecordSource interface {
		Load(ctx context.Context) ([]core.SpendRecord, error)
		// Name identifies the source in logs and import metadata.
		Name() string
	}

	// RecordWriter replaces the persisted record set.
	RecordWriter interface {
		ReplaceAll(ctx context.Context, source string, records []core.SpendRecord) (importID int64, err error)
	}
)
