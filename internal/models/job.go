package models

import (
	"time"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
)

// Job is one asynchronous diarization task.
type Job struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	Stage         string             `json:"stage,omitempty"`
	Parameters    Parameters         `json:"parameters"`
	AudioPath     string             `json:"audio_path"`
	ArtifactPaths []string           `json:"artifact_paths,omitempty"`
	Duration      float64            `json:"duration,omitempty"`
	Error         string             `json:"error,omitempty"`
	Result        *diarize.Response  `json:"result,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}

// Parameters is the immutable snapshot of submission options.
type Parameters struct {
	ModelName        string `json:"model_name"`
	Language         string `json:"language,omitempty"`
	Stemming         bool   `json:"stemming"`
	SuppressNumerals bool   `json:"suppress_numerals"`
	BatchSize        int    `json:"batch_size"`
}

// ジョブステータス
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Pipeline stages, in execution order. StageSeparatingVocals only runs
// when the job requested stemming.
const (
	StageSeparatingVocals = "separating_vocals"
	StageTranscribing     = "transcribing"
	StageAligning         = "aligning"
	StageDiarizing        = "diarizing"
	StagePostProcessing   = "post_processing"
	StageGeneratingOutput = "generating_output"
)

// Stages returns the stage sequence the pipeline will execute for the
// given parameters.
func Stages(p Parameters) []string {
	stages := []string{
		StageTranscribing,
		StageAligning,
		StageDiarizing,
		StagePostProcessing,
		StageGeneratingOutput,
	}
	if p.Stemming {
		return append([]string{StageSeparatingVocals}, stages...)
	}
	return stages
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}
