package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists submitted audio under the configured upload root. Each
// file is named after its job id so ownership is unambiguous.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload root.
func (s *Store) Dir() string {
	return s.dir
}

// SaveUpload writes src to {dir}/{jobID}{ext}, taking the extension from
// the client filename with a .wav fallback.
func (s *Store) SaveUpload(jobID, filename string, src io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}

	destPath := filepath.Join(s.dir, jobID+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return destPath, nil
}
