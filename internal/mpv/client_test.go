package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startClient runs a client over an in-memory pipe and returns the mpv side.
func startClient(t *testing.T, ctx context.Context, fn Handler) (net.Conn, *bufio.Reader, <-chan error) {
	t.Helper()
	clientSide, mpvSide := net.Pipe()
	t.Cleanup(func() { _ = mpvSide.Close() })

	c := NewClient(clientSide, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, fn) }()
	return mpvSide, bufio.NewReader(mpvSide), done
}

// readCommand reads and decodes one request line.
func readCommand(t *testing.T, r *bufio.Reader) command {
	t.Helper()
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var cmd command
	require.NoError(t, json.Unmarshal(line, &cmd))
	return cmd
}

// send writes one line to the client.
func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

// wait returns the result of Run or fails after a timeout.
func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
		return nil
	}
}

// TestRun_DispatchesDisplayNames verifies property changes reach the handler until shutdown.
func TestRun_DispatchesDisplayNames(t *testing.T) {
	var got [][]string
	conn, r, done := startClient(t, context.Background(), func(names []string) {
		got = append(got, names)
	})

	cmd := readCommand(t, r)
	assert.Equal(t, []any{"observe_property", float64(observeID), Property}, cmd.Command)
	assert.Equal(t, observeID, cmd.RequestID)

	send(t, conn, `{"request_id":1,"error":"success","data":null}`)
	send(t, conn, `{"event":"property-change","id":1,"name":"display-names","data":null}`)
	send(t, conn, `{"event":"property-change","id":1,"name":"display-names","data":["DP-1","HDMI-1"]}`)
	send(t, conn, `{"event":"file-loaded"}`)
	send(t, conn, `not json`)
	send(t, conn, `{"event":"property-change","id":1,"name":"display-names","data":"\\\\.\\DISPLAY1,\\\\.\\DISPLAY2"}`)
	send(t, conn, `{"event":"property-change","id":2,"name":"pause","data":true}`)
	send(t, conn, `{"event":"shutdown"}`)

	require.NoError(t, wait(t, done))
	assert.Equal(t, [][]string{
		{"DP-1", "HDMI-1"},
		{`\\.\DISPLAY1`, `\\.\DISPLAY2`},
	}, got)
}

// TestRun_ObserveRejected verifies a failed observe_property ends the session with an error.
func TestRun_ObserveRejected(t *testing.T) {
	conn, r, done := startClient(t, context.Background(), func([]string) {})
	readCommand(t, r)
	send(t, conn, `{"request_id":1,"error":"property not found","data":null}`)
	require.Error(t, wait(t, done))
}

// TestRun_EOF verifies mpv closing the connection ends Run cleanly.
func TestRun_EOF(t *testing.T) {
	conn, r, done := startClient(t, context.Background(), func([]string) {})
	readCommand(t, r)
	require.NoError(t, conn.Close())
	require.NoError(t, wait(t, done))
}

// TestRun_ContextCancel verifies cancellation unblocks a pending read.
func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, r, done := startClient(t, ctx, func([]string) {})
	readCommand(t, r)
	cancel()
	require.NoError(t, wait(t, done))
}

// TestDecodeNames verifies accepted payload shapes.
func TestDecodeNames(t *testing.T) {
	names, ok := DecodeNames(json.RawMessage(`["A","B"]`))
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, names)

	names, ok = DecodeNames(json.RawMessage(`[]`))
	require.True(t, ok)
	assert.Empty(t, names)

	names, ok = DecodeNames(json.RawMessage(`"A,,B"`))
	require.True(t, ok)
	assert.Equal(t, []string{"A", "", "B"}, names)

	_, ok = DecodeNames(json.RawMessage(`null`))
	assert.False(t, ok)
	_, ok = DecodeNames(nil)
	assert.False(t, ok)
	_, ok = DecodeNames(json.RawMessage(`42`))
	assert.False(t, ok)
}
