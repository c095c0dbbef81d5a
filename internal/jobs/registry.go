package jobs

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// Registry is the in-memory job store and submission queue. It is the
// only shared mutable state in the service; every component goes through
// its operations, which are atomic with respect to each other. A job is
// never observable as both queued and processing, and a queue entry is
// never claimed twice.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*models.Job
	queue  []queueEntry
	notify chan struct{}
}

// queueEntry defines FIFO order among queued jobs.
type queueEntry struct {
	id         string
	enqueuedAt time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs:   make(map[string]*models.Job),
		notify: make(chan struct{}, 1),
	}
}

// Notify signals whenever a new job is enqueued. The channel carries at
// most one pending wakeup; the worker drains the queue on each one.
func (r *Registry) Notify() <-chan struct{} {
	return r.notify
}

// Create allocates a new queued job and appends it to the queue. The id
// is generated when empty; status and timestamps are always assigned
// here so a submitted job can never enter in any state but queued.
func (r *Registry) Create(job models.Job) models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.Status = models.JobStatusQueued
	job.Stage = ""
	job.CreatedAt = time.Now()
	if job.AudioPath != "" && len(job.ArtifactPaths) == 0 {
		job.ArtifactPaths = []string{job.AudioPath}
	}

	stored := job
	stored.ArtifactPaths = append([]string(nil), job.ArtifactPaths...)
	r.jobs[stored.ID] = &stored
	r.queue = append(r.queue, queueEntry{id: stored.ID, enqueuedAt: stored.CreatedAt})

	select {
	case r.notify <- struct{}{}:
	default:
	}

	return snapshot(&stored)
}

// Get returns a consistent snapshot of a job.
func (r *Registry) Get(id string) (models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return snapshot(job), nil
}

// List returns snapshots of all jobs in submission order.
func (r *Registry) List() []models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// PositionOf returns the zero-based number of queue entries ahead of id.
func (r *Registry) PositionOf(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.queue {
		if entry.id == id {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// Cancel removes a queued job and its queue entry atomically. Jobs that
// already started or finished cannot be cancelled.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()

	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != models.JobStatusQueued {
		r.mu.Unlock()
		return ErrInvalidState
	}

	for i, entry := range r.queue {
		if entry.id == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	delete(r.jobs, id)
	paths := job.ArtifactPaths
	r.mu.Unlock()

	removeArtifacts(paths)
	return nil
}

// Delete removes a job regardless of status and reclaims its artifacts.
// Deleting an unknown id returns ErrNotFound so the HTTP layer can 404;
// the reaper treats that as a no-op.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()

	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}

	for i, entry := range r.queue {
		if entry.id == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	delete(r.jobs, id)
	paths := job.ArtifactPaths
	r.mu.Unlock()

	removeArtifacts(paths)
	return nil
}

// ClaimNext dequeues the oldest queued job and flips it to processing in
// one critical section. The initial stage is set here so a poll never
// observes a processing job without a stage.
func (r *Registry) ClaimNext() (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) > 0 {
		entry := r.queue[0]
		r.queue = r.queue[1:]

		job, ok := r.jobs[entry.id]
		if !ok {
			// Cancelled between enqueue and claim.
			continue
		}

		now := time.Now()
		job.Status = models.JobStatusProcessing
		job.StartedAt = &now
		job.Stage = models.Stages(job.Parameters)[0]
		return snapshot(job), true
	}
	return models.Job{}, false
}

// UpdateStage advances the visible pipeline stage of a processing job.
func (r *Registry) UpdateStage(id, stage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status != models.JobStatusProcessing {
		return ErrInvalidState
	}
	job.Stage = stage
	return nil
}

// Complete marks a job completed and stores its result document.
func (r *Registry) Complete(id string, result *diarize.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Stage = ""
	job.Result = result
	if result != nil {
		job.Duration = result.Metadata.Duration
	}
	job.CompletedAt = &now
	return nil
}

// Fail marks a job failed with a human-readable error.
func (r *Registry) Fail(id string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Stage = ""
	job.Error = errMsg
	job.CompletedAt = &now
	return nil
}

// CountByStatus returns live job counts per status.
func (r *Registry) CountByStatus() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts
}

// CleanupCompleted deletes terminal jobs whose completion time precedes
// now minus retention, reclaiming their artifacts. Queued and processing
// jobs are never touched regardless of age. Returns the number deleted.
func (r *Registry) CleanupCompleted(retention time.Duration) int {
	r.mu.Lock()

	cutoff := time.Now().Add(-retention)
	var reclaim []string
	removed := 0
	for id, job := range r.jobs {
		if !models.IsTerminal(job.Status) {
			continue
		}
		if job.CompletedAt == nil || !job.CompletedAt.Before(cutoff) {
			continue
		}
		delete(r.jobs, id)
		reclaim = append(reclaim, job.ArtifactPaths...)
		removed++
	}
	r.mu.Unlock()

	removeArtifacts(reclaim)
	return removed
}

// snapshot copies a job so callers never share mutable state with the
// registry. The result document is immutable once set.
func snapshot(job *models.Job) models.Job {
	out := *job
	out.ArtifactPaths = append([]string(nil), job.ArtifactPaths...)
	return out
}

// removeArtifacts best-effort deletes job-owned files. Callers invoke it
// after releasing the registry lock so a slow filesystem never stalls
// polls or submissions.
func removeArtifacts(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.RemoveAll(path)
	}
}
