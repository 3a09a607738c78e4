package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/urlstore"
)

func TestStoreSweeperSweep(t *testing.T) {
	store := urlstore.New(time.Nanosecond, 100)
	store.Put("https://cdn.example.com/a.mp4", "https://cdn.example.com/b.mp4")
	time.Sleep(time.Millisecond)

	ss := NewStoreSweeper(store, logger.NewNop(), time.Minute)
	ss.Sweep()

	if got := store.Len(); got != 0 {
		t.Errorf("store.Len() = %d after sweep, want 0", got)
	}
}

func TestStoreSweeperStartStop(t *testing.T) {
	store := urlstore.New(time.Minute, 100)
	ss := NewStoreSweeper(store, logger.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ss.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ss.Stop()
}

func TestPlatformReloaderMissingFileFallsBack(t *testing.T) {
	// The loader falls back to built-in defaults when the file is absent,
	// so an initial reload must not fail.
	reg := platforms.NewRegistry(platforms.FileConfig{})
	pr := NewPlatformReloader("/nonexistent/platforms.yaml", reg, logger.NewNop(), time.Hour, nil)

	if err := pr.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.Count() == 0 {
		t.Error("expected default platforms after reload")
	}
}
