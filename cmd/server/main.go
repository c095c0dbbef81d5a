package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rroosshhaann/whisper-diarization/internal/asr"
	"github.com/rroosshhaann/whisper-diarization/internal/config"
	"github.com/rroosshhaann/whisper-diarization/internal/handlers"
	"github.com/rroosshhaann/whisper-diarization/internal/ingest"
	"github.com/rroosshhaann/whisper-diarization/internal/jobs"
	"github.com/rroosshhaann/whisper-diarization/internal/pipeline"
	"github.com/rroosshhaann/whisper-diarization/internal/version"
	"github.com/rroosshhaann/whisper-diarization/internal/worker"
)

func main() {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	cfg := config.Load()

	store, err := ingest.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatal(err)
	}

	whisperConfig := asr.DefaultWhisperConfig(cfg.WhisperModelDir)
	whisperConfig.NumThreads = cfg.NumThreads
	transcriber, err := asr.NewWhisperTranscriber(whisperConfig)
	if err != nil {
		log.Fatalf("Failed to load Whisper model: %v", err)
	}
	defer transcriber.Close()

	executor := pipeline.NewExecutor(
		asr.NewDemucsSeparator(cfg.PythonBin, cfg.Device, cfg.UploadDir),
		transcriber,
		asr.NewScriptAligner(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "align.py"), cfg.Device),
		asr.NewScriptDiarizer(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "diarize.py"), cfg.Device),
		asr.NewScriptPunctuator(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "punctuate.py")),
		cfg.MaxUtteranceGap,
	)
	executor.SetDurationProber(asr.AudioDuration)

	registry := jobs.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := worker.NewWorker(registry, executor)
	w.Start(ctx)

	reaper := worker.NewReaper(registry, cfg.JobExpiry, cfg.CleanupInterval)
	reaper.Start(ctx)

	// Echoインスタンスの作成
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	h := handlers.NewJobHandler(registry, store, ingest.NewYouTubeFetcher(store), cfg.WhisperModel)
	e.POST("/jobs", h.Submit)
	e.POST("/jobs/url", h.SubmitURL)
	e.GET("/jobs", h.List)
	e.GET("/jobs/:id", h.Status)
	e.GET("/jobs/:id/result", h.Result)
	e.DELETE("/jobs/:id", h.Delete)
	e.GET("/health", h.Health)

	go func() {
		log.Printf("Starting whisper-diarization v%s on port %s", version.Version, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	reaper.Stop()
	w.Stop()
}
