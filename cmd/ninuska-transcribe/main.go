package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "log/slog"

	"ninuska/internal/app"
	"ninuska/internal/config"
	"ninuska/pkg/audioconv"
	"ninuska/pkg/stt"
)

func main() {
	cfg, err := config.Parse("ninuska-transcribe", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.SetupLogging(cfg.Level())

	if cfg.STT == config.STTRemote && cfg.APIKey == "" {
		log.Error("Missing credentials", "err", config.ErrMissingAPIKey)
		os.Exit(1)
	}

	files := cfg.Args
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ninuska-transcribe [flags] file...")
		os.Exit(2)
	}

	clients, err := app.NewClients(cfg)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	rec, err := app.NewRecognizer(cfg, clients)
	if err != nil {
		log.Error("Failed to init recognizer", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	failed := false
	for _, path := range files {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		text, err := transcribe(ctx, rec, path, cfg.Language)
		cancel()

		switch {
		case errors.Is(err, stt.ErrNoMatch):
			log.Warn("No speech recognized", "file", path)
		case err != nil:
			log.Error("Failed to transcribe", "file", path, "err", err)
			failed = true
		default:
			fmt.Printf("%s: %s\n", path, text)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func transcribe(ctx context.Context, rec stt.Recognizer, path, lang string) (string, error) {
	pcm, err := audioconv.Decode(ctx, path, audioconv.Options{})
	if err != nil {
		return "", err
	}
	log.Debug("Decoded", "file", path, "samples", len(pcm))
	return rec.Recognize(ctx, pcm, lang)
}
