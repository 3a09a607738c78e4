package scheduler

import (
	"context"
	"time"

	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/urlstore"
)

// StoreSweeper periodically evicts expired URL records so the store does not
// carry dead entries between lookups.
type StoreSweeper struct {
	store    *urlstore.Store
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewStoreSweeper creates a new store sweeper
func NewStoreSweeper(store *urlstore.Store, log logger.Logger, interval time.Duration) *StoreSweeper {
	return &StoreSweeper{
		store:    store,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep process
func (ss *StoreSweeper) Start(ctx context.Context) error {
	// Run immediately on start
	ss.Sweep()

	ticker := time.NewTicker(ss.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ss.Sweep()
			case <-ss.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (ss *StoreSweeper) Stop() {
	close(ss.stopCh)
}

// Sweep removes expired records and refreshes the store gauge.
func (ss *StoreSweeper) Sweep() {
	removed := ss.store.Sweep()
	remaining := ss.store.Len()
	metrics.StoreRecords.Set(float64(remaining))

	if removed > 0 {
		ss.logger.Info("swept expired URL records",
			logger.Int("removed", removed),
			logger.Int("remaining", remaining))
	} else {
		ss.logger.Debug("no expired URL records to sweep")
	}
}
