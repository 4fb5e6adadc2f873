package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ninuska/internal/vision"
)

const (
	nameCLI           = "cli"
	DefaultCLICommand = "claude"
	DefaultCLITimeout = 120 * time.Second
)

// CLI runs an external command-line assistant once per utterance.
type CLI struct {
	command      string
	systemPrompt string
	timeout      time.Duration
}

func NewCLI(command, systemPrompt string, timeout time.Duration) *CLI {
	if command == "" {
		command = DefaultCLICommand
	}
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	if timeout <= 0 {
		timeout = DefaultCLITimeout
	}
	return &CLI{command: command, systemPrompt: systemPrompt, timeout: timeout}
}

// Respond implements Backend. A frame must have been captured WithFile:
// the assistant reads the image from disk.
func (c *CLI) Respond(ctx context.Context, utterance string, frame *vision.Frame) (string, error) {
	prompt := utterance
	var extra []string
	if frame != nil {
		if frame.Path == "" {
			return "", newError(nameCLI, "frame has no file path", nil)
		}
		extra = append(extra, "--add-dir", filepath.Dir(frame.Path))
		prompt = imagePrompt(utterance, frame.Path)
	}

	args := append([]string{
		"-p", prompt,
		"--system-prompt", c.systemPrompt,
		"--dangerously-skip-permissions",
		"--output-format", "json",
	}, extra...)

	log.Debug("CLI prompt", "prompt", Truncate(prompt, 100))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		e := newError(nameCLI, fmt.Sprintf("no reply within %s", c.timeout), ctx.Err())
		e.Timeout = true
		return "", e
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			diag := stderr.String()
			if strings.TrimSpace(diag) == "" {
				diag = stdout.String()
			}
			log.Warn("CLI failed", "code", exitErr.ExitCode(), "stderr", Truncate(diag, 300))
			return "", newError(nameCLI, diag, err)
		}
		return "", newError(nameCLI, err.Error(), err)
	}

	reply, err := parseCLIOutput(stdout.String())
	if err != nil {
		return "", err
	}

	log.Debug("CLI reply", "chars", len([]rune(reply)))
	return reply, nil
}

// parseCLIOutput reads the "result" field of the JSON output format and falls
// back to the raw text when the output is not JSON.
func parseCLIOutput(out string) (string, error) {
	reply := strings.TrimSpace(out)

	if gjson.Valid(reply) {
		doc := gjson.Parse(reply)
		result := doc.Get("result")
		if doc.Get("is_error").Bool() {
			return "", newError(nameCLI, result.String(), nil)
		}
		if result.Exists() {
			reply = strings.TrimSpace(result.String())
		}
	}

	if reply == "" {
		return "", newError(nameCLI, "empty reply", nil)
	}
	return reply, nil
}
