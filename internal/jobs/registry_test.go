package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

func newQueuedJob(id string) models.Job {
	return models.Job{
		ID: id,
		Parameters: models.Parameters{
			ModelName: "medium.en",
			Stemming:  true,
			BatchSize: 8,
		},
	}
}

func TestCreateAssignsID(t *testing.T) {
	r := NewRegistry()

	job := r.Create(models.Job{})
	if job.ID == "" {
		t.Fatal("expected generated id")
	}
	if job.Status != models.JobStatusQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCreateTracksAudioArtifact(t *testing.T) {
	r := NewRegistry()

	job := r.Create(models.Job{AudioPath: "/tmp/x/abc.wav"})
	if len(job.ArtifactPaths) != 1 || job.ArtifactPaths[0] != "/tmp/x/abc.wav" {
		t.Errorf("artifact paths = %v, want the audio path", job.ArtifactPaths)
	}
}

func TestQueuePositions(t *testing.T) {
	r := NewRegistry()

	a := r.Create(newQueuedJob("a"))
	b := r.Create(newQueuedJob("b"))
	c := r.Create(newQueuedJob("c"))

	for i, job := range []models.Job{a, b, c} {
		pos, err := r.PositionOf(job.ID)
		if err != nil {
			t.Fatalf("PositionOf(%s): %v", job.ID, err)
		}
		if pos != i {
			t.Errorf("position of %s = %d, want %d", job.ID, pos, i)
		}
	}

	// Claiming the head shifts everyone forward.
	if _, ok := r.ClaimNext(); !ok {
		t.Fatal("expected a claimable job")
	}
	pos, err := r.PositionOf(b.ID)
	if err != nil {
		t.Fatalf("PositionOf after claim: %v", err)
	}
	if pos != 0 {
		t.Errorf("position of %s = %d, want 0", b.ID, pos)
	}
}

func TestClaimNextFIFO(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("first"))
	r.Create(newQueuedJob("second"))

	job, ok := r.ClaimNext()
	if !ok {
		t.Fatal("expected a claimable job")
	}
	if job.ID != "first" {
		t.Errorf("claimed %s, want first", job.ID)
	}
	if job.Status != models.JobStatusProcessing {
		t.Errorf("status = %s, want processing", job.Status)
	}
	if job.Stage != models.StageSeparatingVocals {
		t.Errorf("stage = %s, want %s", job.Stage, models.StageSeparatingVocals)
	}
	if job.StartedAt == nil {
		t.Error("started_at not set")
	}
}

func TestClaimNextStageWithoutStemming(t *testing.T) {
	r := NewRegistry()
	job := newQueuedJob("plain")
	job.Parameters.Stemming = false
	r.Create(job)

	claimed, ok := r.ClaimNext()
	if !ok {
		t.Fatal("expected a claimable job")
	}
	if claimed.Stage != models.StageTranscribing {
		t.Errorf("stage = %s, want %s", claimed.Stage, models.StageTranscribing)
	}
}

func TestClaimNextSkipsCancelled(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("gone"))
	r.Create(newQueuedJob("kept"))

	if err := r.Cancel("gone"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	job, ok := r.ClaimNext()
	if !ok {
		t.Fatal("expected a claimable job")
	}
	if job.ID != "kept" {
		t.Errorf("claimed %s, want kept", job.ID)
	}

	if _, ok := r.ClaimNext(); ok {
		t.Error("queue should be empty")
	}
}

func TestClaimNextEmpty(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.ClaimNext(); ok {
		t.Error("expected no claimable job")
	}
}

func TestCancelStates(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))

	if _, ok := r.ClaimNext(); !ok {
		t.Fatal("claim failed")
	}

	if err := r.Cancel("a"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Cancel(processing) = %v, want ErrInvalidState", err)
	}
	if err := r.Cancel("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel(missing) = %v, want ErrNotFound", err)
	}
}

func TestUpdateStage(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))

	if err := r.UpdateStage("a", models.StageDiarizing); !errors.Is(err, ErrInvalidState) {
		t.Errorf("UpdateStage(queued) = %v, want ErrInvalidState", err)
	}

	r.ClaimNext()
	if err := r.UpdateStage("a", models.StageDiarizing); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	job, _ := r.Get("a")
	if job.Stage != models.StageDiarizing {
		t.Errorf("stage = %s, want diarizing", job.Stage)
	}
}

func TestCompleteClearsStage(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))
	r.ClaimNext()

	result := &diarize.Response{}
	result.Metadata.RequestID = "a"
	result.Metadata.Duration = 12.5

	if err := r.Complete("a", result); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	job, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != models.JobStatusCompleted {
		t.Errorf("status = %s, want completed", job.Status)
	}
	if job.Stage != "" {
		t.Errorf("stage = %q, want empty after completion", job.Stage)
	}
	if job.Duration != 12.5 {
		t.Errorf("duration = %f, want 12.5", job.Duration)
	}
	if job.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if job.Result == nil {
		t.Error("result not stored")
	}
}

func TestFailClearsStage(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))
	r.ClaimNext()

	if err := r.Fail("a", "diarizing: model not found"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	job, _ := r.Get("a")
	if job.Status != models.JobStatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.Stage != "" {
		t.Errorf("stage = %q, want empty after failure", job.Stage)
	}
	if job.Error != "diarizing: model not found" {
		t.Errorf("error = %q", job.Error)
	}
}

func TestGetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestListOrder(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))
	r.Create(newQueuedJob("b"))

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("list = %d jobs, want 2", len(list))
	}
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("order = %s, %s; want a, b", list[0].ID, list[1].ID)
	}
}

func TestCountByStatus(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("a"))
	r.Create(newQueuedJob("b"))
	r.ClaimNext()

	counts := r.CountByStatus()
	if counts[models.JobStatusQueued] != 1 {
		t.Errorf("queued = %d, want 1", counts[models.JobStatusQueued])
	}
	if counts[models.JobStatusProcessing] != 1 {
		t.Errorf("processing = %d, want 1", counts[models.JobStatusProcessing])
	}
}

func TestCleanupCompleted(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("done"))
	r.Create(newQueuedJob("active"))
	r.ClaimNext()
	r.Complete("done", &diarize.Response{})

	// Negative retention places the cutoff in the future, so any
	// terminal job is expired.
	removed := r.CleanupCompleted(-time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := r.Get("done"); !errors.Is(err, ErrNotFound) {
		t.Error("completed job should be gone")
	}
	if _, err := r.Get("active"); err != nil {
		t.Error("queued job must survive cleanup")
	}
}

func TestCleanupKeepsRecent(t *testing.T) {
	r := NewRegistry()
	r.Create(newQueuedJob("done"))
	r.ClaimNext()
	r.Complete("done", &diarize.Response{})

	if removed := r.CleanupCompleted(time.Hour); removed != 0 {
		t.Errorf("removed = %d, want 0 within retention", removed)
	}
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "job.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	job := newQueuedJob("a")
	job.AudioPath = audio
	r.Create(job)

	if err := r.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Errorf("audio file still exists after delete")
	}
}

func TestCancelRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "job.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	job := newQueuedJob("a")
	job.AudioPath = audio
	r.Create(job)

	if err := r.Cancel("a"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Errorf("audio file still exists after cancel")
	}
}

func TestCleanupRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "job.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	job := newQueuedJob("a")
	job.AudioPath = audio
	r.Create(job)
	r.ClaimNext()
	r.Fail("a", "diarizing: boom")

	if removed := r.CleanupCompleted(-time.Hour); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Errorf("audio file still exists after cleanup")
	}
}

// Reclaiming artifacts must not hold the registry lock, so reads issued
// while a delete is in flight stay responsive.
func TestDeleteDoesNotBlockReads(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "job.wav")
	if err := os.WriteFile(audio, []byte("pcm"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	doomed := newQueuedJob("doomed")
	doomed.AudioPath = audio
	r.Create(doomed)
	r.Create(newQueuedJob("other"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Delete("doomed")
	}()

	deadline := time.After(2 * time.Second)
	for i := 0; i < 100; i++ {
		select {
		case <-deadline:
			t.Fatal("reads stalled during delete")
		default:
		}
		if _, err := r.Get("other"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	<-done
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	created := r.Create(newQueuedJob("a"))

	created.Status = "mangled"
	created.ArtifactPaths = append(created.ArtifactPaths, "/tmp/extra")

	job, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != models.JobStatusQueued {
		t.Error("mutating a snapshot leaked into the registry")
	}
	if len(job.ArtifactPaths) != 0 {
		t.Errorf("artifact paths = %v, want none", job.ArtifactPaths)
	}
}
