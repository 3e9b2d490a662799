package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// GCWorker reclaims disk space from the store's value log. Badger never
// rewrites value log files on its own, so a periodic sweep is required on
// long-running servers.
type GCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *GCWorker {
	return &GCWorker{log: log, db: db, interval: interval}
}

func (w *GCWorker) Run(ctx context.Context) error {
	w.log.Info("Starting store GC worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// One call rewrites at most one value log file; loop until
			// nothing is left to reclaim.
			for {
				err := w.db.RunValueLogGC(0.5)
				if errors.Is(err, badger.ErrNoRewrite) {
					w.log.Debug("Store GC : nothing to reclaim")
					break
				}
				if err != nil {
					w.log.Warn("Store GC failed", "err", err)
					break
				}
				w.log.Info("Store GC : reclaimed one value log file")
			}
		}
	}
}
