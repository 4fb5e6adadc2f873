package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReachesHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	got := make(chan ControlMessage, 2)

	srv, err := StartServer(ctx, path, func(m ControlMessage) { got <- m })
	require.NoError(t, err)
	defer srv.Close()

	require.NoError(t, Send(path, ControlMessage{Cmd: CmdListen}))
	require.NoError(t, Send(path, ControlMessage{Cmd: CmdSay, Text: "Dobrý večer."}))

	var msgs []ControlMessage
	for range 2 {
		select {
		case m := <-got:
			msgs = append(msgs, m)
		case <-time.After(5 * time.Second):
			t.Fatal("handler not called")
		}
	}
	assert.ElementsMatch(t, []ControlMessage{
		{Cmd: CmdListen},
		{Cmd: CmdSay, Text: "Dobrý večer."},
	}, msgs)
}

func TestSendWithoutServer(t *testing.T) {
	err := Send(filepath.Join(t.TempDir(), "missing.sock"), ControlMessage{Cmd: CmdListen})
	assert.Error(t, err)
}

func TestServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), "ctl.sock")

	_, err := StartServer(ctx, path, func(ControlMessage) {})
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		return Send(path, ControlMessage{Cmd: CmdListen}) != nil
	}, 5*time.Second, 20*time.Millisecond)
}
