package pipeline

import (
	"context"
	"fmt"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// Separator extracts the vocal track from mixed audio. It returns the
// path of the separated audio file and a cleanup releasing the
// intermediate stems once the pipeline is done with them. cleanup may be
// nil.
type Separator interface {
	SeparateVocals(ctx context.Context, audioPath string) (path string, cleanup func(), err error)
}

// Transcriber produces raw, unaligned words from audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, params models.Parameters) ([]diarize.Word, error)
}

// Aligner refines word timestamps against the audio waveform.
type Aligner interface {
	Align(ctx context.Context, audioPath string, words []diarize.Word, params models.Parameters) ([]diarize.Word, error)
}

// Diarizer partitions audio time into labeled speaker segments.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]diarize.SpeakerSegment, error)
}

// Punctuator restores punctuation, setting PunctuatedWord on each word.
// Implementations may return the words unchanged when restoration is not
// available for the language.
type Punctuator interface {
	RestorePunctuation(ctx context.Context, words []diarize.Word, language string) ([]diarize.Word, error)
}

// StageError is a stage-aware pipeline failure.
type StageError struct {
	Stage string
	Err   error
}

// Error formats the failure with its stage label.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	return e.Err
}
