package session

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically persists the registry and evicts expired sessions.
// Errors on either step are logged and swallowed; the loop only stops when
// the context is cancelled at process shutdown.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	expiry   time.Duration
}

// NewSweeper configures the background lifecycle loop.
func NewSweeper(registry *Registry, interval, expiry time.Duration) *Sweeper {
	return &Sweeper{registry: registry, interval: interval, expiry: expiry}
}

// Run blocks until ctx is cancelled. Callers start it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final snapshot so a clean shutdown loses nothing.
			if err := s.registry.Persist(); err != nil {
				log.Printf("[sweeper] final persist failed: %v", err)
			}
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	if err := s.registry.Persist(); err != nil {
		log.Printf("[sweeper] persist failed: %v", err)
	}
	if removed := s.registry.GarbageCollect(s.expiry); removed > 0 {
		log.Printf("[sweeper] collected %d expired sessions", removed)
	}
}
