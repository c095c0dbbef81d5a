package pipeline

import (
	"context"
	"log"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// ProgressFunc receives the stage label as each stage begins, after the
// stage has been persisted for pollers.
type ProgressFunc func(stage string)

// Executor drives one job at a time through the fixed stage order,
// invoking the external collaborators and assembling the final document.
// The first failing stage ends the run; later stages never execute.
type Executor struct {
	separator       Separator
	transcriber     Transcriber
	aligner         Aligner
	diarizer        Diarizer
	punctuator      Punctuator
	maxUtteranceGap float64
	probeDuration   func(path string) (float64, error)
}

// NewExecutor wires the stage collaborators.
func NewExecutor(
	separator Separator,
	transcriber Transcriber,
	aligner Aligner,
	diarizer Diarizer,
	punctuator Punctuator,
	maxUtteranceGap float64,
) *Executor {
	return &Executor{
		separator:       separator,
		transcriber:     transcriber,
		aligner:         aligner,
		diarizer:        diarizer,
		punctuator:      punctuator,
		maxUtteranceGap: maxUtteranceGap,
	}
}

// Run executes the applicable stages for job and returns the assembled
// result document. Errors are StageError values naming the failed stage.
func (e *Executor) Run(ctx context.Context, job models.Job, onStage ProgressFunc) (*diarize.Response, error) {
	audioPath := job.AudioPath

	if job.Parameters.Stemming {
		emitStage(onStage, models.StageSeparatingVocals)
		vocalPath, cleanup, err := e.separator.SeparateVocals(ctx, audioPath)
		if err != nil {
			// Source separation is best-effort: fall back to the
			// original audio rather than failing the whole job.
			log.Printf("Job %s: vocal separation failed, using original audio: %v", job.ID, err)
		} else {
			audioPath = vocalPath
			// The stems are intermediate; reclaim them however the run
			// ends.
			if cleanup != nil {
				defer cleanup()
			}
		}
	}

	emitStage(onStage, models.StageTranscribing)
	words, err := e.transcriber.Transcribe(ctx, audioPath, job.Parameters)
	if err != nil {
		return nil, &StageError{Stage: models.StageTranscribing, Err: err}
	}

	emitStage(onStage, models.StageAligning)
	words, err = e.aligner.Align(ctx, audioPath, words, job.Parameters)
	if err != nil {
		return nil, &StageError{Stage: models.StageAligning, Err: err}
	}

	emitStage(onStage, models.StageDiarizing)
	segments, err := e.diarizer.Diarize(ctx, audioPath)
	if err != nil {
		return nil, &StageError{Stage: models.StageDiarizing, Err: err}
	}

	emitStage(onStage, models.StagePostProcessing)
	words, err = e.punctuator.RestorePunctuation(ctx, words, job.Parameters.Language)
	if err != nil {
		return nil, &StageError{Stage: models.StagePostProcessing, Err: err}
	}

	emitStage(onStage, models.StageGeneratingOutput)
	opts := diarize.FormatOptions{
		RequestID:       job.ID,
		ModelName:       job.Parameters.ModelName,
		MaxUtteranceGap: e.maxUtteranceGap,
	}
	if e.probeDuration != nil {
		// Probe the original upload, not the separated vocals.
		if duration, err := e.probeDuration(job.AudioPath); err == nil {
			opts.Duration = duration
		}
	}
	return diarize.BuildResponse(words, segments, opts), nil
}

// SetDurationProber installs a probe for the true audio duration,
// reported in the result metadata. Without one the end of the last word
// stands in.
func (e *Executor) SetDurationProber(probe func(path string) (float64, error)) {
	e.probeDuration = probe
}

// emitStage forwards stage updates when a callback is configured.
func emitStage(cb ProgressFunc, stage string) {
	if cb != nil {
		cb(stage)
	}
}
