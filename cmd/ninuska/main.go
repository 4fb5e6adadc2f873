package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "log/slog"

	"ninuska/internal/app"
	"ninuska/internal/assistant"
	"ninuska/internal/audio"
	"ninuska/internal/audio/mic"
	"ninuska/internal/audio/speaker"
	"ninuska/internal/config"
	"ninuska/internal/ipc"
	"ninuska/internal/notify"
)

func main() {
	cfg, err := config.Parse("ninuska", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.SetupLogging(cfg.Level())
	if err := cfg.CheckAPIKey(); err != nil {
		log.Error("Missing credentials", "err", err)
		os.Exit(1)
	}
	log.Info("Booting up", "backend", cfg.Backend, "stt", cfg.STT, "tts", cfg.TTS)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nUkončuji Ninušku...")
		os.Exit(0)
	}()

	clients, err := app.NewClients(cfg)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	microphone := mic.New(audio.DefaultGate())
	if err := microphone.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer microphone.Close()

	log.Info("Calibrating microphone", "duration", cfg.Calibration)
	if err := microphone.Calibrate(ctx, cfg.Calibration); err != nil {
		log.Error("Failed to calibrate microphone", "err", err)
		os.Exit(1)
	}

	recognizer, err := app.NewRecognizer(cfg, clients)
	if err != nil {
		log.Error("Failed to init recognizer", "err", err)
		os.Exit(1)
	}
	defer recognizer.Close()

	speech := app.NewSpeaker(cfg, clients)

	acfg := assistant.DefaultConfig()
	acfg.Language = cfg.Language
	acfg.PushToTalk = cfg.Trigger == config.TriggerSocket

	a := assistant.New(acfg, microphone, recognizer, app.NewBackend(cfg, clients), speech).
		WithCue(listeningCue(cfg.Cue, speech))

	if camera := app.NewCamera(cfg); camera != nil {
		if idx, err := camera.Probe(); err != nil {
			log.Warn("No camera found", "err", err)
		} else {
			log.Info("Camera found", "device", idx)
		}
		a.WithCamera(camera)
	}

	requests := make(chan assistant.Request, 8)
	srv, err := ipc.StartServer(ctx, cfg.Socket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdListen:
			requests <- assistant.Request{}
		case ipc.CmdSay:
			requests <- assistant.Request{Say: msg.Text}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	})
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()
	a.WithRequests(requests)

	log.Info("Boot up - successful", "trigger", cfg.Trigger, "socket", cfg.Socket)

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Assistant stopped", "err", err)
		os.Exit(1)
	}
}

func listeningCue(kind string, s notify.Sayer) notify.Cue {
	switch kind {
	case config.CueTone:
		return func(ctx context.Context) error {
			return speaker.Tone(ctx, 880, 150*time.Millisecond)
		}
	case config.CueDesktop:
		return notify.All(notify.Desktop(assistant.ListeningPhrase), notify.Spoken(s, assistant.ListeningPhrase))
	case config.CueNone:
		return notify.None
	default:
		return notify.Spoken(s, assistant.ListeningPhrase)
	}
}
