//go:build windows

package mpv

import (
	"context"
	"io"
	"os"
)

// dial opens mpv's named pipe as a file.
func dial(ctx context.Context, path string) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR, 0)
}
