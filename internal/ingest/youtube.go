package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// AudioFetcher downloads the audio track of a remote video into the
// upload store and returns the saved path.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, videoURL, jobID string) (string, error)
}

// YouTubeFetcher downloads the best audio-only format of a YouTube
// video.
type YouTubeFetcher struct {
	client ytdl.Client
	store  *Store
}

// NewYouTubeFetcher creates a fetcher writing into store.
func NewYouTubeFetcher(store *Store) *YouTubeFetcher {
	return &YouTubeFetcher{
		client: ytdl.Client{},
		store:  store,
	}
}

// FetchAudio picks the highest-bitrate audio-only format and saves it as
// {store}/{jobID}{ext}.
func (f *YouTubeFetcher) FetchAudio(ctx context.Context, videoURL, jobID string) (string, error) {
	video, err := f.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("failed to get video: %w", err)
	}

	var best *ytdl.Format
	for i := range video.Formats {
		format := &video.Formats[i]
		if !strings.HasPrefix(format.MimeType, "audio/") {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}
	if best == nil {
		return "", fmt.Errorf("no audio formats available for %s", videoURL)
	}

	stream, _, err := f.client.GetStreamContext(ctx, video, best)
	if err != nil {
		return "", fmt.Errorf("failed to get audio stream: %w", err)
	}
	defer stream.Close()

	destPath := filepath.Join(f.store.Dir(), jobID+audioExtension(best.MimeType))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, stream); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	return destPath, nil
}

// audioExtension maps an audio MIME type to a filename extension.
func audioExtension(mimeType string) string {
	if strings.Contains(mimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(mimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}
