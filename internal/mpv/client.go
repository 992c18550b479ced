// Package mpv follows mpv's display-names property over its JSON IPC server.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

// Property is the mpv property listing the displays the video window covers.
const Property = "display-names"

const (
	observeID  = 1
	maxMessage = 1 << 20
)

// Handler receives the display names whenever the property changes.
type Handler func(names []string)

// command is one JSON IPC request.
type command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

// message is any line mpv sends: a command reply or an event.
type message struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID *int            `json:"request_id,omitempty"`
}

// Client speaks mpv's JSON IPC protocol over one connection.
type Client struct {
	conn io.ReadWriteCloser
	log  zerolog.Logger

	closeOnce sync.Once
}

// NewClient wraps an established IPC connection.
func NewClient(conn io.ReadWriteCloser, log zerolog.Logger) *Client {
	return &Client{conn: conn, log: log}
}

// Connect dials the IPC socket or pipe at path.
func Connect(ctx context.Context, path string, log zerolog.Logger) (*Client, error) {
	conn, err := dial(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("mpv: connect %s: %w", path, err)
	}
	return NewClient(conn, log), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// Run observes the display-names property and calls fn for every change until mpv
// shuts down, the connection ends or ctx is cancelled. Each of those ends Run without error.
func (c *Client) Run(ctx context.Context, fn Handler) error {
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if err := c.send(command{
		Command:   []any{"observe_property", observeID, Property},
		RequestID: observeID,
	}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	sc := bufio.NewScanner(c.conn)
	sc.Buffer(make([]byte, 0, 4096), maxMessage)
	for sc.Scan() {
		var msg message
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			c.log.Debug().Err(err).Msg("mpv: skipping unreadable message")
			continue
		}
		done, err := c.handle(msg, fn)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("mpv: read: %w", err)
	}
	c.log.Info().Msg("mpv: connection closed")
	return nil
}

// handle processes one message and reports whether the session is over.
func (c *Client) handle(msg message, fn Handler) (bool, error) {
	switch {
	case msg.Event == "shutdown":
		c.log.Info().Msg("mpv: shutdown")
		return true, nil
	case msg.Event == "property-change" && msg.Name == Property:
		names, ok := DecodeNames(msg.Data)
		if !ok {
			c.log.Debug().RawJSON("data", nonEmpty(msg.Data)).Msg("mpv: display-names unavailable")
			return false, nil
		}
		fn(names)
	case msg.Event != "":
		c.log.Trace().Str("event", msg.Event).Msg("mpv: event")
	case msg.RequestID != nil && *msg.RequestID == observeID:
		if msg.Error != "success" {
			return false, fmt.Errorf("mpv: observe %s: %s", Property, msg.Error)
		}
		c.log.Debug().Msg("mpv: observing " + Property)
	}
	return false, nil
}

// send writes one newline-terminated command.
func (c *Client) send(cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("mpv: marshal command: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("mpv: send command: %w", err)
	}
	return nil
}

// DecodeNames reads a display-names value. mpv sends a string array; a comma
// separated string is also accepted. Null or missing data reports false.
func DecodeNames(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err == nil {
		return spotlight.ParseNames(csv), true
	}
	return nil, false
}

func nonEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
