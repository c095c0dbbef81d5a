package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration, sourced from environment
// variables with defaults matching the reference deployment.
type Config struct {
	Port            string
	UploadDir       string
	JobExpiry       time.Duration
	CleanupInterval time.Duration
	MaxUtteranceGap float64
	WhisperModel    string
	WhisperModelDir string
	ScriptDir       string
	PythonBin       string
	Device          string
	NumThreads      int
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		UploadDir:       getEnv("UPLOAD_DIR", "/tmp/diarization_uploads"),
		JobExpiry:       time.Duration(getEnvInt("JOB_EXPIRY_SECONDS", 3600)) * time.Second,
		CleanupInterval: time.Duration(getEnvInt("CLEANUP_INTERVAL_SECONDS", 60)) * time.Second,
		MaxUtteranceGap: getEnvFloat("MAX_UTTERANCE_GAP", 3.0),
		WhisperModel:    getEnv("WHISPER_MODEL", "medium.en"),
		WhisperModelDir: getEnv("WHISPER_MODEL_DIR", "models/sherpa-onnx-whisper-medium.en"),
		ScriptDir:       getEnv("SCRIPT_DIR", "scripts"),
		PythonBin:       getEnv("PYTHON_BIN", "python3"),
		Device:          getEnv("DEVICE", "auto"),
		NumThreads:      getEnvInt("NUM_THREADS", 4),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
