// Package app wires the display worker, HTTP API and control websocket together.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/config"
	"github.com/frudas24/ddc-spotlight/internal/control"
	"github.com/frudas24/ddc-spotlight/internal/monitor"
	"github.com/frudas24/ddc-spotlight/internal/session"
)

// OutputLister returns the OS display outputs.
type OutputLister func() ([]monitor.Monitor, error)

// App coordinates the HTTP API, the control websocket and the display worker.
type App struct {
	cfg         config.Config
	log         zerolog.Logger
	session     *session.Session
	worker      *Worker
	control     *control.Server
	listOutputs OutputLister
}

// New creates a new application with its dependencies wired.
func New(cfg config.Config, sess *session.Session, worker *Worker, log zerolog.Logger) (*App, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if worker == nil {
		return nil, errors.New("display worker is required")
	}

	return &App{
		cfg:         cfg,
		log:         log,
		session:     sess,
		worker:      worker,
		control:     control.NewServer(sess, worker, log),
		listOutputs: monitor.ListMonitors,
	}, nil
}

// Start probes the displays and applies the startup policy. When the policy
// fails the worker is stopped, so displays are restored and released.
func (a *App) Start(ctx context.Context) error {
	if err := a.worker.Start(); err != nil {
		return err
	}
	if a.cfg.DimOnStart {
		if err := a.worker.DimAll(ctx, session.SourceStartup); err != nil {
			return errors.Join(err, a.worker.Stop())
		}
	}
	return nil
}

// Stop restores every display and releases the hardware.
func (a *App) Stop() error {
	return a.worker.Stop()
}

// HandleDisplayNames applies a display list reported by the media host.
func (a *App) HandleDisplayNames(names []string) {
	if err := a.worker.Spotlight(context.Background(), names, session.SourceMPV); err != nil {
		a.log.Warn().Err(err).Strs("names", names).Msg("app: spotlight from mpv failed")
	}
}

// Worker returns the display worker.
func (a *App) Worker() *Worker {
	return a.worker
}

// Control returns the control websocket handler.
func (a *App) Control() *control.Server {
	return a.control
}
