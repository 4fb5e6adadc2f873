// Package config reads the daemon settings from flags, the .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"ninuska/internal/backend"
	"ninuska/internal/ipc"
	"ninuska/internal/speech"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

const (
	BackendCLI  = "cli"
	BackendChat = "chat"

	STTRemote  = "remote"
	STTWhisper = "whisper"

	TTSGoogle = "google"
	TTSOpenAI = "openai"
	TTSEspeak = "espeak"

	PlayerBeep   = "beep"
	PlayerFFPlay = "ffplay"

	TriggerContinuous = "continuous"
	TriggerSocket     = "socket"

	CueSpeech  = "speech"
	CueTone    = "tone"
	CueDesktop = "desktop"
	CueNone    = "none"
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

type Config struct {
	EnvFile  string
	LogLevel string
	Proxy    string
	Socket   string
	Trigger  string
	Language string
	Cue      string

	Backend      string
	CLICommand   string
	CLITimeout   time.Duration
	ChatModel    string
	VisionModel  string
	STT          string
	STTModel     string
	WhisperModel string
	TTS          string
	TTSModel     string
	TTSVoice     string
	Player       string

	PlaybackTimeout time.Duration
	Calibration     time.Duration
	Camera          bool
	CameraDevices   int
	CameraWarmup    time.Duration
	Duck            bool

	APIKey  string
	BaseURL string

	Args []string // positional arguments
}

// Parse reads args (without the program name). The env file is loaded
// before the environment is consulted; a missing file is not an error.
func Parse(name string, args []string) (*Config, error) {
	c := &Config{}
	fs := cli.NewFlagSet(name, cli.ContinueOnError)

	fs.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", "info", "Log level")
	fs.StringVarP(&c.Proxy, "proxy", "p", "", "Socks5 proxy address for cloud services")
	fs.StringVar(&c.Socket, "socket", ipc.SocketPath, "Control socket path")
	fs.StringVarP(&c.Trigger, "trigger", "t", TriggerContinuous, "Turn trigger: continuous|socket")
	fs.StringVar(&c.Language, "lang", "cs-CZ", "Recognition language")
	fs.StringVar(&c.Cue, "cue", CueSpeech, "Listening cue: speech|tone|desktop|none")

	fs.StringVarP(&c.Backend, "backend", "b", BackendCLI, "Reply backend: cli|chat")
	fs.StringVar(&c.CLICommand, "cli-command", backend.DefaultCLICommand, "Assistant CLI executable")
	fs.DurationVar(&c.CLITimeout, "cli-timeout", backend.DefaultCLITimeout, "Assistant CLI timeout")
	fs.StringVar(&c.ChatModel, "chat-model", "", "Chat completion model")
	fs.StringVar(&c.VisionModel, "vision-model", "", "Chat model for turns with an image")
	fs.StringVar(&c.STT, "stt", STTRemote, "Recognizer: remote|whisper")
	fs.StringVar(&c.STTModel, "stt-model", "", "Remote transcription model")
	fs.StringVar(&c.WhisperModel, "whisper-model", "third_party/whisper.cpp/models/ggml-medium.bin", "Local whisper model")
	fs.StringVar(&c.TTS, "tts", TTSGoogle, "Speech synthesis: google|openai|espeak")
	fs.StringVar(&c.TTSModel, "tts-model", "", "OpenAI speech model")
	fs.StringVar(&c.TTSVoice, "tts-voice", "", "OpenAI speech voice")
	fs.StringVar(&c.Player, "player", PlayerBeep, "Audio player: beep|ffplay")

	fs.DurationVar(&c.PlaybackTimeout, "playback-timeout", speech.DefaultTimeout, "Playback timeout")
	fs.DurationVar(&c.Calibration, "calibrate", time.Second, "Ambient noise calibration at startup")
	fs.BoolVar(&c.Camera, "camera", true, "Enable camera requests")
	fs.IntVar(&c.CameraDevices, "camera-devices", 3, "Camera indices to probe")
	fs.DurationVar(&c.CameraWarmup, "camera-warmup", 0, "Delay between opening the camera and reading")
	fs.BoolVar(&c.Duck, "duck", false, "Lower other audio streams while speaking")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.Args = fs.Args()

	if err := godotenv.Load(c.EnvFile); err != nil && fs.Changed("env") {
		return nil, fmt.Errorf("env file %s: %w", c.EnvFile, err)
	}
	c.APIKey = os.Getenv("OPENAI_API_KEY")
	c.BaseURL = os.Getenv("OPENAI_BASE_URL")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	checks := []struct {
		flag, value string
		allowed     []string
	}{
		{"backend", c.Backend, []string{BackendCLI, BackendChat}},
		{"stt", c.STT, []string{STTRemote, STTWhisper}},
		{"tts", c.TTS, []string{TTSGoogle, TTSOpenAI, TTSEspeak}},
		{"player", c.Player, []string{PlayerBeep, PlayerFFPlay}},
		{"trigger", c.Trigger, []string{TriggerContinuous, TriggerSocket}},
		{"cue", c.Cue, []string{CueSpeech, CueTone, CueDesktop, CueNone}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("--%s: unknown value %q", ch.flag, ch.value)
		}
	}

	if _, ok := logLevelMap[c.LogLevel]; !ok {
		return fmt.Errorf("--log: unknown level %q", c.LogLevel)
	}
	if c.CLITimeout <= 0 || c.PlaybackTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// CheckAPIKey fails when a selected component calls the OpenAI API and no
// key is configured.
func (c *Config) CheckAPIKey() error {
	if c.NeedsOpenAI() && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// NeedsOpenAI reports whether any selected component calls the OpenAI API.
func (c *Config) NeedsOpenAI() bool {
	return c.Backend == BackendChat || c.STT == STTRemote || c.TTS == TTSOpenAI
}

func (c *Config) Level() log.Level {
	return logLevelMap[c.LogLevel]
}
