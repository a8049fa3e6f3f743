// workers/registry_gc_worker.go
package workers

import (
	"context"
	"log"
	"time"
)

// ClosedSweeper is implemented by the connection registry.
type ClosedSweeper interface {
	SweepClosed(olderThan time.Duration) int
}

// SweepRegistry prunes connection records that have been closed for longer
// than the retention window. The sweep is housekeeping only; registry
// correctness never depends on a record being removed.
func SweepRegistry(ctx context.Context, registry ClosedSweeper, retention, interval time.Duration) {
	log.Println("Starting connection registry sweep...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Registry sweep stopped.")
			return
		case <-ticker.C:
			registry.SweepClosed(retention)
		}
	}
}
