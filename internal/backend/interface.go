// Package backend builds the record source selected by DATA_BACKEND.
package backend

import (
	"context"
	"time"

	goption "google.golang.org/api/option"

	"spendboard/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the source instance and optional cleanup function.
// Writer is set when the backend can also persist a new record set.
type BackendResult struct {
	Source  sources.RecordSource
	Writer  sources.RecordWriter
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory backend specific
	DataDirectory string

	// Remote specific
	RemoteURL     string
	RemoteTimeout time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleSheetRange    string
	// GoogleOptions override the credentials read from the environment.
	GoogleOptions []goption.ClientOption
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	RemoteBackend BackendType = "remote"
	SheetsBackend BackendType = "sheets"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, RemoteBackend, SheetsBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
