package mpv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pipePoll is how often a named pipe is checked for.
const pipePoll = 250 * time.Millisecond

// IsPipe reports whether path names a Windows named pipe.
func IsPipe(path string) bool {
	return strings.HasPrefix(path, `\\.\pipe\`) || strings.HasPrefix(path, `//./pipe/`)
}

// WaitForSocket blocks until path exists or ctx ends. Socket files are watched with
// fsnotify; named pipes cannot be watched and are polled.
func WaitForSocket(ctx context.Context, path string) error {
	if exists(path) {
		return nil
	}
	if IsPipe(path) {
		return poll(ctx, path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if exists(path) {
		return nil
	}

	want := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("mpv: watcher closed")
			}
			if filepath.Clean(ev.Name) == want && ev.Op&fsnotify.Create == fsnotify.Create {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("mpv: watcher closed")
			}
			return err
		}
	}
}

// poll checks for path on a fixed interval.
func poll(ctx context.Context, path string) error {
	t := time.NewTicker(pipePoll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if exists(path) {
				return nil
			}
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
