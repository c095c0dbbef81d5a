package worker

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/jobs"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
	"github.com/rroosshhaann/whisper-diarization/internal/pipeline"
)

// Runner executes the processing pipeline for one claimed job.
type Runner interface {
	Run(ctx context.Context, job models.Job, onStage pipeline.ProgressFunc) (*diarize.Response, error)
}

// Worker is the single scheduler goroutine. It is the sole claimer of
// queued jobs and the sole invoker of the GPU-bound pipeline, which
// keeps at most one job processing at any instant. One job's failure
// never stops the loop.
type Worker struct {
	registry *jobs.Registry
	runner   Runner
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a worker over the given registry and pipeline.
func NewWorker(registry *jobs.Registry, runner Runner) *Worker {
	return &Worker{
		registry: registry,
		runner:   runner,
		interval: 1 * time.Second,
		stop:     make(chan struct{}),
	}
}

// SetInterval sets the fallback polling interval.
func (w *Worker) SetInterval(interval time.Duration) {
	w.interval = interval
}

// Start begins processing jobs.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	log.Println("Worker started")
}

// Stop gracefully stops the worker after any in-flight job finishes.
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drainQueue(ctx)

		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.registry.Notify():
		case <-ticker.C:
		}
	}
}

// drainQueue claims and processes jobs until the queue is empty.
func (w *Worker) drainQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		job, ok := w.registry.ClaimNext()
		if !ok {
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job models.Job) {
	log.Printf("Processing job %s (model: %s)", job.ID, job.Parameters.ModelName)

	result, runErr := w.runner.Run(ctx, job, func(stage string) {
		if err := w.registry.UpdateStage(job.ID, stage); err != nil {
			log.Printf("Error updating stage for job %s: %v", job.ID, err)
		}
	})

	// The uploaded audio is consumed once processing ends; results and
	// errors remain inspectable until expiry or explicit deletion.
	if job.AudioPath != "" {
		_ = os.Remove(job.AudioPath)
	}

	if runErr != nil {
		log.Printf("Job %s failed: %v", job.ID, runErr)
		if err := w.registry.Fail(job.ID, runErr.Error()); err != nil {
			w.logTerminalWriteError(job.ID, err)
		}
		return
	}

	if err := w.registry.Complete(job.ID, result); err != nil {
		w.logTerminalWriteError(job.ID, err)
		return
	}
	log.Printf("Job %s completed", job.ID)
}

// logTerminalWriteError reports a terminal transition that found no job,
// which happens when a client deleted the record mid-flight.
func (w *Worker) logTerminalWriteError(id string, err error) {
	if errors.Is(err, jobs.ErrNotFound) {
		log.Printf("Job %s was deleted during processing", id)
		return
	}
	log.Printf("Error finishing job %s: %v", id, err)
}
