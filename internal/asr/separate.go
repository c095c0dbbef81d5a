package asr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DemucsSeparator runs demucs two-stem separation to isolate the vocal
// track before transcription.
type DemucsSeparator struct {
	pythonBin string
	device    string
	outputDir string
}

// NewDemucsSeparator creates a separator writing stems under outputDir.
func NewDemucsSeparator(pythonBin, device, outputDir string) *DemucsSeparator {
	return &DemucsSeparator{
		pythonBin: pythonBin,
		device:    device,
		outputDir: outputDir,
	}
}

// SeparateVocals extracts the vocal stem of audioPath and returns its
// location plus a cleanup removing the stem directory. The layout is
// fixed by demucs: {out}/htdemucs/{basename}/vocals.wav.
func (s *DemucsSeparator) SeparateVocals(ctx context.Context, audioPath string) (string, func(), error) {
	outDir := filepath.Join(s.outputDir, "stems")

	args := []string{
		"-m", "demucs.separate",
		"-n", "htdemucs",
		"--two-stems=vocals",
		audioPath,
		"-o", outDir,
	}
	// "auto" lets demucs pick its own device.
	if s.device != "" && s.device != "auto" {
		args = append(args, "--device", s.device)
	}
	cmd := exec.CommandContext(ctx, s.pythonBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", nil, fmt.Errorf("demucs failed: %s", firstLine(stderr.String(), err))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	stemDir := filepath.Join(outDir, "htdemucs", base)
	vocalPath := filepath.Join(stemDir, "vocals.wav")
	if _, err := os.Stat(vocalPath); err != nil {
		os.RemoveAll(stemDir)
		return "", nil, fmt.Errorf("demucs completed but vocal stem is missing: %s", vocalPath)
	}
	return vocalPath, func() { os.RemoveAll(stemDir) }, nil
}

// firstLine reduces captured stderr to a single-line error message.
func firstLine(stderr string, fallback error) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return fallback.Error()
	}
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
