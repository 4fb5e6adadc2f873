package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Espeak synthesizes offline with espeak-ng. Quality is poor but it needs no
// network.
type Espeak struct {
	command string
}

func NewEspeak(command string) *Espeak {
	if command == "" {
		command = "espeak-ng"
	}
	return &Espeak{command: command}
}

func (e *Espeak) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, "-v", lang, "--stdout", text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("espeak: no audio produced")
	}
	return &Audio{Data: stdout.Bytes(), Ext: ".wav"}, nil
}
