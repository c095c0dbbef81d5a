package asr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// decodePCM converts any input audio to mono 16-bit PCM at the given
// sample rate via ffmpeg and returns the samples as float32 in [-1, 1].
func decodePCM(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	reader := bufio.NewReader(stdout)
	var samples []float32
	buffer := make([]byte, sampleRate*2)
	for {
		n, err := io.ReadFull(reader, buffer)
		if n > 0 {
			samples = append(samples, bytesToFloat32(buffer[:n])...)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			cmd.Wait()
			return nil, fmt.Errorf("failed to read audio stream: %w", err)
		}
	}

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed to decode %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio decoded from %s", path)
	}
	return samples, nil
}

// bytesToFloat32 converts little-endian 16-bit PCM bytes to samples.
func bytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := 0; i < len(samples); i++ {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

// AudioDuration probes the duration of an audio file in seconds.
func AudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	var duration float64
	fmt.Sscanf(string(output), "%f", &duration)
	return duration, nil
}
