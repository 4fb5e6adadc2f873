package speech

import (
	"context"
	"os/exec"
	"time"
)

// CommandPlayer plays files with an external program; the file path is
// appended to args. The process is killed when ctx is done.
type CommandPlayer struct {
	name string
	args []string
}

func NewCommandPlayer(name string, args ...string) *CommandPlayer {
	return &CommandPlayer{name: name, args: args}
}

// FFPlay is the default external player.
func FFPlay() *CommandPlayer {
	return NewCommandPlayer("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet")
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string(nil), p.args...), path)
	cmd := exec.CommandContext(ctx, p.name, args...)
	cmd.WaitDelay = time.Second
	return cmd.Run()
}
