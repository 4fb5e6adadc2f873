package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	c, err := Parse("ninuska", nil)
	require.NoError(t, err)

	assert.Equal(t, BackendCLI, c.Backend)
	assert.Equal(t, STTRemote, c.STT)
	assert.Equal(t, TTSGoogle, c.TTS)
	assert.Equal(t, TriggerContinuous, c.Trigger)
	assert.Equal(t, "cs-CZ", c.Language)
	assert.Equal(t, 120*time.Second, c.CLITimeout)
	assert.Equal(t, 60*time.Second, c.PlaybackTimeout)
	assert.Equal(t, "/tmp/ninuska.sock", c.Socket)
	assert.Equal(t, 3, c.CameraDevices)
	assert.Equal(t, "sk-test", c.APIKey)
	assert.Equal(t, log.LevelInfo, c.Level())
}

func TestParseFlags(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	c, err := Parse("ninuska", []string{
		"-b", "cli", "--stt", "whisper", "--tts", "espeak",
		"--trigger", "socket", "--cli-timeout", "30s", "-l", "debug", "--duck", "a.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, STTWhisper, c.STT)
	assert.Equal(t, TTSEspeak, c.TTS)
	assert.Equal(t, TriggerSocket, c.Trigger)
	assert.Equal(t, 30*time.Second, c.CLITimeout)
	assert.True(t, c.Duck)
	assert.Equal(t, []string{"a.wav"}, c.Args)
	assert.False(t, c.NeedsOpenAI())
	assert.Equal(t, log.LevelDebug, c.Level())
}

func TestParseEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-from-file\n"), 0o600))

	c, err := Parse("ninuska", []string{"-e", path, "--backend", "chat"})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", c.APIKey)
}

func TestParseMissingEnvFile(t *testing.T) {
	_, err := Parse("ninuska", []string{"-e", filepath.Join(t.TempDir(), "nope.env")})
	assert.ErrorContains(t, err, "env file")
}

func TestParseMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	c, err := Parse("ninuska", []string{"--backend", "chat", "--stt", "whisper"})
	require.NoError(t, err)
	assert.ErrorIs(t, c.CheckAPIKey(), ErrMissingAPIKey)

	c.Backend = BackendCLI
	assert.NoError(t, c.CheckAPIKey())
}

func TestParseRejectsUnknownValues(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	for _, args := range [][]string{
		{"--backend", "gpt"},
		{"--tts", "festival"},
		{"--trigger", "wakeword"},
		{"--log", "trace"},
		{"--cli-timeout", "0s"},
	} {
		_, err := Parse("ninuska", args)
		assert.Error(t, err, args)
	}
}
