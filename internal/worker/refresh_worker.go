// Package worker keeps a server's dataset current: it reacts to refresh
// notifications and optionally reloads on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spendboard/internal/amqp"
	"spendboard/internal/dashboard"
	"spendboard/internal/log"
)

// Reloader is the part of dashboard.Service the worker drives.
type Reloader interface {
	Reload(ctx context.Context) (*dashboard.Dataset, error)
}

// RefreshWorker reloads the dataset on demand and on a schedule.
type RefreshWorker struct {
	reloader Reloader
	interval time.Duration
	logger   *log.Logger

	mu         sync.Mutex
	lastImport int64
}

// NewRefreshWorker returns a worker. An interval of zero disables periodic
// reloads.
func NewRefreshWorker(reloader Reloader, interval time.Duration, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RefreshWorker{
		reloader: reloader,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRefresh reloads after an import was announced. Notifications for an
// import at or below the last one handled are skipped, so redelivered
// messages do not trigger extra loads.
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.DatasetRefreshedMessage) error {
	w.mu.Lock()
	if msg.ImportID > 0 && msg.ImportID <= w.lastImport {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Skipping stale refresh notification",
			log.FieldImportID, msg.ImportID)
		return nil
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Processing refresh notification",
		log.FieldImportID, msg.ImportID,
		log.FieldSource, msg.Source,
		log.FieldRecords, msg.Records)

	ds, err := w.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload after import %d: %w", msg.ImportID, err)
	}

	w.mu.Lock()
	if msg.ImportID > w.lastImport {
		w.lastImport = msg.ImportID
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Dataset refreshed",
		log.FieldImportID, msg.ImportID,
		log.FieldDatasetVersion, ds.Version,
		log.FieldRecords, len(ds.Records))
	return nil
}

// StartupLoad performs the initial load. A failure is logged and left for
// the first request or the next refresh to retry.
func (w *RefreshWorker) StartupLoad(ctx context.Context) {
	if _, err := w.reloader.Reload(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Initial dataset load failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}
}

// Run reloads every interval until ctx is done. It returns immediately when
// periodic reloads are disabled.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.reloader.Reload(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic reload failed", log.FieldError, err, log.FieldOperation, log.OpReload)
			}
		}
	}
}
