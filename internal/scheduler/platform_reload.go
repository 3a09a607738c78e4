package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/platforms"
)

// PlatformReloader handles periodic reloading of the platform registry
type PlatformReloader struct {
	loader        *platforms.Loader
	registry      *platforms.Registry
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewPlatformReloader creates a new platform reloader
func NewPlatformReloader(
	platformFile string,
	registry *platforms.Registry,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *PlatformReloader {
	return &PlatformReloader{
		loader:        platforms.NewLoader(platformFile),
		registry:      registry,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic reload process
func (pr *PlatformReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := pr.Reload(); err != nil {
		return fmt.Errorf("initial platform reload failed: %w", err)
	}

	ticker := time.NewTicker(pr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := pr.Reload(); err != nil {
					pr.logger.Error("failed to reload platform registry",
						logger.Error(err))
				}
			case <-pr.manualTrigger:
				pr.logger.Info("manual platform reload triggered")
				if err := pr.Reload(); err != nil {
					pr.logger.Error("failed to reload platform registry",
						logger.Error(err))
				}
			case <-pr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (pr *PlatformReloader) Stop() {
	close(pr.stopCh)
}

// Reload loads the platform file and swaps the registry snapshot. A load
// failure leaves the previous snapshot in place.
func (pr *PlatformReloader) Reload() error {
	cfg, err := pr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load platform config: %w", err)
	}

	pr.registry.Update(cfg)

	pr.logger.Info("platform registry reloaded",
		logger.Int("platforms", pr.registry.Count()))

	return nil
}
