package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninuska/internal/vision"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "žluť", Truncate("žluťoučký", 4))
	assert.Equal(t, "kůň", Truncate("kůň", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

// fakeCLI writes an executable shell script standing in for the assistant.
func fakeCLI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assistant")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCLIJSONResult(t *testing.T) {
	cmd := fakeCLI(t, `echo '{"type":"result","is_error":false,"result":"  Je slunečno.  "}'`)
	c := NewCLI(cmd, "", time.Minute)

	reply, err := c.Respond(context.Background(), "jaké je počasí", nil)
	require.NoError(t, err)
	assert.Equal(t, "Je slunečno.", reply)
}

func TestCLIPlainOutput(t *testing.T) {
	cmd := fakeCLI(t, `echo "  Ahoj!  "`)
	reply, err := NewCLI(cmd, "", time.Minute).Respond(context.Background(), "ahoj", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ahoj!", reply)
}

func TestCLIArguments(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	cmd := fakeCLI(t, `for a in "$@"; do printf '%s\n' "$a" >> `+out+`; done; echo ok`)

	dir := t.TempDir()
	frame := &vision.Frame{JPEG: []byte("x"), Path: filepath.Join(dir, "cam.jpg")}

	_, err := NewCLI(cmd, "sys", time.Minute).Respond(context.Background(), "co vidíš", frame)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "-p\nco vidíš\n\nAnalyzuj obrázek: "+frame.Path+"\n")
	assert.Contains(t, got, "--system-prompt\nsys\n")
	assert.Contains(t, got, "--output-format\njson\n")
	assert.Contains(t, got, "--add-dir\n"+dir+"\n")
}

func TestCLIFrameWithoutPath(t *testing.T) {
	_, err := NewCLI("true", "", time.Minute).Respond(context.Background(), "co vidíš", &vision.Frame{JPEG: []byte("x")})
	var be *Error
	require.True(t, errors.As(err, &be))
}

func TestCLIFailureIsBounded(t *testing.T) {
	cmd := fakeCLI(t, `head -c 5000 /dev/zero | tr '\0' 'x' >&2; exit 3`)

	_, err := NewCLI(cmd, "", time.Minute).Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.False(t, be.Timeout)
	assert.Equal(t, DiagLimit, len([]rune(be.Diag)))
	assert.LessOrEqual(t, len(be.Error()), DiagLimit+32)
}

func TestCLIReportedError(t *testing.T) {
	cmd := fakeCLI(t, `echo '{"is_error":true,"result":"Credit balance is too low"}'`)

	_, err := NewCLI(cmd, "", time.Minute).Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Credit balance is too low", be.Diag)
}

func TestCLIEmptyReply(t *testing.T) {
	cmd := fakeCLI(t, `echo '{"result":"   "}'`)
	_, err := NewCLI(cmd, "", time.Minute).Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "empty reply", be.Diag)
}

func TestCLITimeout(t *testing.T) {
	cmd := fakeCLI(t, `sleep 5`)

	start := time.Now()
	_, err := NewCLI(cmd, "", 200*time.Millisecond).Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.True(t, be.Timeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCLIMissingCommand(t *testing.T) {
	_, err := NewCLI(filepath.Join(t.TempDir(), "missing"), "", time.Minute).Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.NotEmpty(t, be.Diag)
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, body string, seen *chatRequest) *Chat {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		if seen != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return NewChat(client, ChatConfig{Model: "text-model", VisionModel: "vision-model"})
}

const chatOK = `{"id":"1","object":"chat.completion","created":1,"model":"m",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Dobrý den.  "}}]}`

func TestChatRespond(t *testing.T) {
	var req chatRequest
	c := chatServer(t, http.StatusOK, chatOK, &req)

	reply, err := c.Respond(context.Background(), "ahoj", nil)
	require.NoError(t, err)
	assert.Equal(t, "Dobrý den.", reply)

	assert.Equal(t, "text-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, string(req.Messages[0].Content), "česky")
	assert.Equal(t, `"ahoj"`, string(req.Messages[1].Content))
}

func TestChatRespondWithFrame(t *testing.T) {
	var req chatRequest
	c := chatServer(t, http.StatusOK, chatOK, &req)

	_, err := c.Respond(context.Background(), "co vidíš", &vision.Frame{JPEG: []byte{0xff, 0xd8}})
	require.NoError(t, err)

	assert.Equal(t, "vision-model", req.Model)
	user := string(req.Messages[1].Content)
	assert.Contains(t, user, `"type":"image_url"`)
	assert.Contains(t, user, "data:image/jpeg;base64,/9g=")
	assert.Contains(t, user, "co vidíš")
}

func TestChatAPIErrorIsBounded(t *testing.T) {
	huge := strings.Repeat("y", 4000)
	c := chatServer(t, http.StatusInternalServerError, `{"error":{"message":"`+huge+`"}}`, nil)

	_, err := c.Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.LessOrEqual(t, len([]rune(be.Diag)), DiagLimit)
	assert.True(t, strings.HasPrefix(be.Diag, "API 500"))
}

func TestChatNoChoices(t *testing.T) {
	c := chatServer(t, http.StatusOK, `{"id":"1","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)

	_, err := c.Respond(context.Background(), "ahoj", nil)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "no choices in response", be.Diag)
}
