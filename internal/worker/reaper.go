package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rroosshhaann/whisper-diarization/internal/jobs"
)

// Reaper periodically deletes terminal jobs older than the retention
// window, together with their artifacts. It never touches queued or
// processing jobs.
type Reaper struct {
	registry  *jobs.Registry
	retention time.Duration
	interval  time.Duration
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewReaper creates a reaper with the given retention window and scan
// interval.
func NewReaper(registry *jobs.Registry, retention, interval time.Duration) *Reaper {
	return &Reaper{
		registry:  registry,
		retention: retention,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start begins periodic cleanup scans.
func (r *Reaper) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
	log.Printf("Reaper started (retention: %s)", r.retention)
}

// Stop stops the reaper.
func (r *Reaper) Stop() {
	close(r.stop)
	r.wg.Wait()
	log.Println("Reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			if removed := r.registry.CleanupCompleted(r.retention); removed > 0 {
				log.Printf("Reaper removed %d expired job(s)", removed)
			}
		}
	}
}
