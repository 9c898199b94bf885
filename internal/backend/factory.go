package backend

import (
	"context"
	"fmt"

	"spendboard/internal/log"
	"spendboard/internal/sources/google"
	"spendboard/internal/sources/memory"
	"spendboard/internal/sources/remote"
	"spendboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentSource),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.NewFromDir(config.DataDirectory)

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Source: store,
		Writer: store,
	}, nil
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	src, err := remote.New(config.RemoteURL, config.RemoteTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote source: %w", err)
	}

	f.logger.Info("Initialized remote backend", "url", config.RemoteURL, "timeout", config.RemoteTimeout)

	return &BackendResult{Source: src}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID: config.GoogleSpreadsheetID,
		SheetName:     config.GoogleSheetName,
		Range:         config.GoogleSheetRange,
	}, config.GoogleOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Source: cli}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:  repo,
		Writer:  repo,
		Cleanup: repo.Close,
	}, nil
}
