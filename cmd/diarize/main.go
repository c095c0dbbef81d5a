package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/rroosshhaann/whisper-diarization/internal/asr"
	"github.com/rroosshhaann/whisper-diarization/internal/config"
	"github.com/rroosshhaann/whisper-diarization/internal/models"
	"github.com/rroosshhaann/whisper-diarization/internal/pipeline"
)

// diarize runs the full processing pipeline on a local audio file and
// prints the result document, without going through the job queue.
func main() {
	modelName := flag.String("model", "medium.en", "whisper model name")
	language := flag.String("language", "", "language code (empty for auto-detect)")
	stemming := flag.Bool("stemming", true, "separate vocals before transcription")
	suppressNumerals := flag.Bool("suppress-numerals", false, "suppress numeral tokens")
	batchSize := flag.Int("batch-size", 8, "inference batch size")
	output := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <audio-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	audioPath := flag.Arg(0)

	_ = godotenv.Load()
	cfg := config.Load()

	whisperConfig := asr.DefaultWhisperConfig(cfg.WhisperModelDir)
	whisperConfig.Language = *language
	whisperConfig.NumThreads = cfg.NumThreads
	transcriber, err := asr.NewWhisperTranscriber(whisperConfig)
	if err != nil {
		log.Fatalf("Failed to load Whisper model: %v", err)
	}
	defer transcriber.Close()

	executor := pipeline.NewExecutor(
		asr.NewDemucsSeparator(cfg.PythonBin, cfg.Device, os.TempDir()),
		transcriber,
		asr.NewScriptAligner(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "align.py"), cfg.Device),
		asr.NewScriptDiarizer(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "diarize.py"), cfg.Device),
		asr.NewScriptPunctuator(cfg.PythonBin, filepath.Join(cfg.ScriptDir, "punctuate.py")),
		cfg.MaxUtteranceGap,
	)
	executor.SetDurationProber(asr.AudioDuration)

	job := models.Job{
		ID:        "local",
		AudioPath: audioPath,
		Parameters: models.Parameters{
			ModelName:        *modelName,
			Language:         *language,
			Stemming:         *stemming,
			SuppressNumerals: *suppressNumerals,
			BatchSize:        *batchSize,
		},
	}

	result, err := executor.Run(context.Background(), job, func(stage string) {
		log.Printf("Stage: %s", stage)
	})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	if *output == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	log.Printf("Result written to %s", *output)
}
