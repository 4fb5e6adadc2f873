// Package app builds the configured components shared by the ninuska commands.
package app

import (
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ninuska/internal/audio"
	"ninuska/internal/audio/speaker"
	"ninuska/internal/backend"
	"ninuska/internal/config"
	"ninuska/internal/proxy"
	"ninuska/internal/speech"
	"ninuska/internal/vision"
	"ninuska/internal/vision/opencv"
	"ninuska/pkg/stt"
	"ninuska/pkg/stt/whispercpp"
)

// Clients are the network clients of one process.
type Clients struct {
	HTTP   *http.Client
	OpenAI openai.Client
}

func SetupLogging(level log.Level) {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
	})))
}

func NewClients(cfg *config.Config) (*Clients, error) {
	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Clients{
		HTTP:   httpClient,
		OpenAI: openai.NewClient(opts...),
	}, nil
}

func NewRecognizer(cfg *config.Config, c *Clients) (stt.Recognizer, error) {
	switch cfg.STT {
	case config.STTWhisper:
		w, err := whispercpp.NewWhisper(cfg.WhisperModel, whispercpp.Options{})
		if err != nil {
			return nil, fmt.Errorf("whisper: %w", err)
		}
		return w, nil
	default:
		return stt.NewRemote(c.OpenAI, cfg.STTModel), nil
	}
}

func NewBackend(cfg *config.Config, c *Clients) backend.Backend {
	if cfg.Backend == config.BackendChat {
		return backend.NewChat(c.OpenAI, backend.ChatConfig{
			Model:        cfg.ChatModel,
			VisionModel:  cfg.VisionModel,
			SystemPrompt: backend.SystemPrompt,
		})
	}
	return backend.NewCLI(cfg.CLICommand, backend.SystemPrompt, cfg.CLITimeout)
}

// NewCamera returns nil when the camera is disabled. The CLI backend reads
// frames from disk, so they are written to temporary files for it.
func NewCamera(cfg *config.Config) *vision.Camera {
	if !cfg.Camera {
		return nil
	}
	opts := []vision.Option{
		vision.WithMaxDevices(cfg.CameraDevices),
		vision.WithWarmup(cfg.CameraWarmup),
	}
	if cfg.Backend == config.BackendCLI {
		opts = append(opts, vision.WithFile(""))
	}
	return vision.New(opencv.Open, opts...)
}

func NewSpeaker(cfg *config.Config, c *Clients) *speech.Speaker {
	var synth speech.Synthesizer
	switch cfg.TTS {
	case config.TTSOpenAI:
		synth = speech.NewOpenAITTS(c.OpenAI, cfg.TTSModel, cfg.TTSVoice)
	case config.TTSEspeak:
		synth = speech.NewEspeak("")
	default:
		synth = speech.NewGoogleTTS(c.HTTP)
	}

	var player speech.Player = speaker.NewPlayer()
	if cfg.Player == config.PlayerFFPlay {
		player = speech.FFPlay()
	}

	opts := []speech.Option{
		speech.WithLanguage(stt.BaseLanguage(cfg.Language)),
		speech.WithTimeout(cfg.PlaybackTimeout),
	}
	if cfg.Duck {
		opts = append(opts, speech.WithDucker(audio.NewDucker([]string{"ninuska", "ffplay"}, 0.3, 10, 150*time.Millisecond)))
	}
	return speech.NewSpeaker(synth, player, opts...)
}
