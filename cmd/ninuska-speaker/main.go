package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "log/slog"

	"ninuska/internal/app"
	"ninuska/internal/config"
)

const (
	testPhrase  = "Test reproduktoru. Pokud mě slyšíš, vše funguje."
	testTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Parse("ninuska-speaker", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.SetupLogging(cfg.Level())

	if cfg.TTS == config.TTSOpenAI && cfg.APIKey == "" {
		log.Error("Missing credentials", "err", config.ErrMissingAPIKey)
		os.Exit(1)
	}

	clients, err := app.NewClients(cfg)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	// a playback running past testTimeout is reported as a timeout, not a failure
	cfg.PlaybackTimeout = testTimeout

	log.Info("Playing test phrase", "tts", cfg.TTS, "player", cfg.Player)
	start := time.Now()
	if err := app.NewSpeaker(cfg, clients).Speak(context.Background(), testPhrase); err != nil {
		log.Error("Speaker test failed", "err", err)
		os.Exit(1)
	}
	log.Info("Speaker test done", "took", time.Since(start).Round(time.Millisecond))
}
