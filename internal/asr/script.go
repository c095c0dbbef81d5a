package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
)

// Languages covered by the punctuation restoration model.
var punctuationLanguages = map[string]bool{
	"en": true, "fr": true, "de": true, "es": true, "it": true,
	"nl": true, "pt": true, "bg": true, "pl": true, "cs": true,
	"sk": true, "sl": true,
}

// runScript executes a python helper, feeding it JSON on stdin and
// decoding JSON from its stdout. Helper stderr becomes the error text.
func runScript(ctx context.Context, pythonBin, script string, args []string, input, output interface{}) error {
	cmd := exec.CommandContext(ctx, pythonBin, append([]string{script}, args...)...)

	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("failed to encode %s input: %w", filepath.Base(script), err)
		}
		cmd.Stdin = bytes.NewReader(payload)
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s failed: %s", filepath.Base(script), firstLine(string(exitErr.Stderr), err))
		}
		return fmt.Errorf("failed to run %s: %w", filepath.Base(script), err)
	}

	if err := json.Unmarshal(out, output); err != nil {
		return fmt.Errorf("failed to parse %s output: %w", filepath.Base(script), err)
	}
	return nil
}

// ScriptAligner refines word timestamps with a CTC forced-alignment
// helper process.
type ScriptAligner struct {
	pythonBin string
	script    string
	device    string
}

// NewScriptAligner creates an aligner invoking the given helper script.
func NewScriptAligner(pythonBin, script, device string) *ScriptAligner {
	return &ScriptAligner{pythonBin: pythonBin, script: script, device: device}
}

// Align passes the raw words to the helper and returns the refined ones.
// The language selects the alignment model and batch_size bounds its
// inference batches.
func (a *ScriptAligner) Align(ctx context.Context, audioPath string, words []diarize.Word, params models.Parameters) ([]diarize.Word, error) {
	input := struct {
		Words []diarize.Word `json:"words"`
	}{Words: words}

	var output struct {
		Words []diarize.Word `json:"words"`
	}
	args := []string{"--audio", audioPath, "--device", a.device}
	if params.Language != "" {
		args = append(args, "--language", strings.ToLower(params.Language))
	}
	if params.BatchSize > 0 {
		args = append(args, "--batch-size", strconv.Itoa(params.BatchSize))
	}
	if err := runScript(ctx, a.pythonBin, a.script, args, input, &output); err != nil {
		return nil, err
	}
	return output.Words, nil
}

// ScriptDiarizer produces speaker segments with an MSDD diarization
// helper process.
type ScriptDiarizer struct {
	pythonBin string
	script    string
	device    string
}

// NewScriptDiarizer creates a diarizer invoking the given helper script.
func NewScriptDiarizer(pythonBin, script, device string) *ScriptDiarizer {
	return &ScriptDiarizer{pythonBin: pythonBin, script: script, device: device}
}

// Diarize returns the speaker segments detected in the audio.
func (d *ScriptDiarizer) Diarize(ctx context.Context, audioPath string) ([]diarize.SpeakerSegment, error) {
	var output struct {
		Segments []diarize.SpeakerSegment `json:"segments"`
	}
	args := []string{"--audio", audioPath, "--device", d.device}
	if err := runScript(ctx, d.pythonBin, d.script, args, nil, &output); err != nil {
		return nil, err
	}
	return output.Segments, nil
}

// ScriptPunctuator restores punctuation with a helper process. Languages
// the model does not cover pass through unchanged.
type ScriptPunctuator struct {
	pythonBin string
	script    string
}

// NewScriptPunctuator creates a punctuator invoking the given helper
// script.
func NewScriptPunctuator(pythonBin, script string) *ScriptPunctuator {
	return &ScriptPunctuator{pythonBin: pythonBin, script: script}
}

// RestorePunctuation fills PunctuatedWord on each word.
func (p *ScriptPunctuator) RestorePunctuation(ctx context.Context, words []diarize.Word, language string) ([]diarize.Word, error) {
	lang := strings.ToLower(language)
	if lang != "" && !punctuationLanguages[lang] {
		log.Printf("Punctuation restoration not available for %s, using original punctuation", language)
		return words, nil
	}
	if len(words) == 0 {
		return words, nil
	}

	input := struct {
		Words    []diarize.Word `json:"words"`
		Language string         `json:"language,omitempty"`
	}{Words: words, Language: lang}

	var output struct {
		Words []diarize.Word `json:"words"`
	}
	if err := runScript(ctx, p.pythonBin, p.script, nil, input, &output); err != nil {
		return nil, err
	}
	return output.Words, nil
}
