package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveUploadNamesFileAfterJob(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.SaveUpload("job-1", "recording.mp3", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if filepath.Base(path) != "job-1.mp3" {
		t.Errorf("saved as %s, want job-1.mp3", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveUploadExtensionFallback(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.SaveUpload("job-2", "noextension", strings.NewReader("audio"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "job-2.wav" {
		t.Errorf("saved as %s, want job-2.wav", filepath.Base(path))
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", store.Dir(), dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("upload directory not created: %v", err)
	}
}
