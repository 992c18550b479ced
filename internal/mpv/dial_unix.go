//go:build !windows

package mpv

import (
	"context"
	"io"
	"net"
)

// dial connects to mpv's unix domain socket.
func dial(ctx context.Context, path string) (io.ReadWriteCloser, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
