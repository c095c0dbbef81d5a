package asr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// The offline recognizer reports no per-word confidence; the reference
// pipeline uses this fixed value.
const defaultWordConfidence = 0.95

// WhisperConfig holds configuration for the Whisper model.
type WhisperConfig struct {
	ModelDir   string
	Language   string // en, ja, etc. or empty for auto-detect
	Task       string // transcribe or translate
	NumThreads int
	SampleRate int
}

// DefaultWhisperConfig returns the default Whisper configuration.
func DefaultWhisperConfig(modelDir string) *WhisperConfig {
	return &WhisperConfig{
		ModelDir:   modelDir,
		Task:       "transcribe",
		NumThreads: 4,
		SampleRate: 16000,
	}
}

// WhisperTranscriber wraps a sherpa-onnx Whisper model as the
// transcription collaborator.
type WhisperTranscriber struct {
	recognizer *sherpa.OfflineRecognizer
	config     *WhisperConfig
}

// NewWhisperTranscriber creates a transcriber from a model directory.
func NewWhisperTranscriber(config *WhisperConfig) (*WhisperTranscriber, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	encoderCandidates := []string{
		"encoder.int8.onnx",
		"encoder.onnx",
		"medium.en-encoder.int8.onnx",
		"medium.en-encoder.onnx",
		"turbo-encoder.int8.onnx",
		"turbo-encoder.onnx",
	}
	decoderCandidates := []string{
		"decoder.int8.onnx",
		"decoder.onnx",
		"medium.en-decoder.int8.onnx",
		"medium.en-decoder.onnx",
		"turbo-decoder.int8.onnx",
		"turbo-decoder.onnx",
	}
	tokensCandidates := []string{
		"tokens.txt",
		"medium.en-tokens.txt",
	}

	encoderPath := findModelFile(config.ModelDir, encoderCandidates)
	decoderPath := findModelFile(config.ModelDir, decoderCandidates)
	tokensPath := findModelFile(config.ModelDir, tokensCandidates)

	if encoderPath == "" {
		return nil, fmt.Errorf("encoder model not found in %s", config.ModelDir)
	}
	if decoderPath == "" {
		return nil, fmt.Errorf("decoder model not found in %s", config.ModelDir)
	}
	if tokensPath == "" {
		return nil, fmt.Errorf("tokens file not found in %s", config.ModelDir)
	}

	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: config.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  encoderPath,
				Decoder:  decoderPath,
				Language: config.Language,
				Task:     config.Task,
			},
			Tokens:     tokensPath,
			NumThreads: config.NumThreads,
			Debug:      0,
		},
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("failed to create Whisper recognizer")
	}

	return &WhisperTranscriber{
		recognizer: recognizer,
		config:     config,
	}, nil
}

// Close releases the recognizer resources.
func (t *WhisperTranscriber) Close() {
	if t.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(t.recognizer)
		t.recognizer = nil
	}
}

// Transcribe decodes the audio to PCM and recognizes it in 30-second
// chunks, Whisper's native window. Returned words carry raw timestamps;
// refinement happens in the alignment stage.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string, params models.Parameters) ([]diarize.Word, error) {
	samples, err := decodePCM(ctx, audioPath, t.config.SampleRate)
	if err != nil {
		return nil, err
	}

	chunkSamples := t.config.SampleRate * 30
	var words []diarize.Word
	for offset := 0; offset < len(samples); offset += chunkSamples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := offset + chunkSamples
		if end > len(samples) {
			end = len(samples)
		}

		chunkStart := float64(offset) / float64(t.config.SampleRate)
		chunkEnd := float64(end) / float64(t.config.SampleRate)
		words = append(words, t.transcribeChunk(samples[offset:end], chunkStart, chunkEnd)...)
	}

	if params.SuppressNumerals {
		words = spellOutNumerals(words)
	}
	return words, nil
}

// transcribeChunk recognizes one chunk and extracts timestamped words.
func (t *WhisperTranscriber) transcribeChunk(samples []float32, chunkStart, chunkEnd float64) []diarize.Word {
	stream := sherpa.NewOfflineStream(t.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(t.config.SampleRate, samples)
	t.recognizer.Decode(stream)

	result := stream.GetResult()
	if result == nil {
		return nil
	}
	return extractWords(result, chunkStart, chunkEnd)
}

// extractWords converts a recognizer result to words. Token timestamps
// are used when the model provides them; otherwise timestamps are
// distributed uniformly over the chunk.
func extractWords(result *sherpa.OfflineRecognizerResult, chunkStart, chunkEnd float64) []diarize.Word {
	var texts []string
	var indices []int
	for i, text := range result.Tokens {
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
		indices = append(indices, i)
	}
	if len(texts) == 0 {
		return nil
	}

	words := make([]diarize.Word, 0, len(texts))
	uniform := (chunkEnd - chunkStart) / float64(len(texts))
	for n, text := range texts {
		i := indices[n]

		start := chunkStart + float64(n)*uniform
		end := start + uniform
		if i < len(result.Timestamps) {
			start = chunkStart + float64(result.Timestamps[i])
			end = start + uniform
			if i < len(result.Durations) && result.Durations[i] > 0 {
				end = start + float64(result.Durations[i])
			}
		}

		words = append(words, diarize.Word{
			Text:       text,
			Start:      start,
			End:        end,
			Confidence: defaultWordConfidence,
		})
	}
	return words
}

// findModelFile returns the first candidate that exists in dir.
func findModelFile(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
