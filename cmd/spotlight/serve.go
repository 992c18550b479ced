package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frudas24/ddc-spotlight/internal/app"
	"github.com/frudas24/ddc-spotlight/internal/mpv"
	"github.com/frudas24/ddc-spotlight/internal/session"
)

const (
	shutdownTimeout = 5 * time.Second
	reconnectDelay  = time.Second
)

// newServeCmd builds the daemon command.
func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Follow mpv and serve the control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

// serve wires the application and blocks until shutdown. Displays are restored on every exit path.
func (c *cli) serve(parent context.Context) error {
	c.logStartup()

	sess := session.New(c.cfg.UIPassword)
	worker := app.NewWorker(sess, c.log, c.monitorOptions()...)
	appInstance, err := app.New(c.cfg, sess, worker, c.log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	defer func() {
		if err := appInstance.Stop(); err != nil {
			c.log.Error().Err(err).Msg("shutdown: restore failed")
		}
	}()
	if err := appInstance.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux)
	server := &http.Server{
		Addr:              c.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		c.followMPV(gctx, appInstance)
		return nil
	})

	err = g.Wait()
	c.log.Info().Msg("shutdown: stopping")
	return err
}

// followMPV connects to mpv whenever its IPC server is available and forwards
// display changes. When a player session ends, every display is restored.
func (c *cli) followMPV(ctx context.Context, a *app.App) {
	path := c.cfg.MPVSocket
	for ctx.Err() == nil {
		waitCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.cfg.SocketWaitMs > 0 {
			waitCtx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.SocketWaitMs)*time.Millisecond)
		}
		err := mpv.WaitForSocket(waitCtx, path)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Str("socket", path).Msg("mpv: socket not available yet")
			sleep(ctx, reconnectDelay)
			continue
		}

		client, err := mpv.Connect(ctx, path, c.log)
		if err != nil {
			c.log.Debug().Err(err).Msg("mpv: connect failed")
			sleep(ctx, reconnectDelay)
			continue
		}
		c.log.Info().Str("socket", path).Msg("mpv: connected")
		if err := client.Run(ctx, a.HandleDisplayNames); err != nil {
			c.log.Warn().Err(err).Msg("mpv: session ended with error")
		}
		if ctx.Err() != nil {
			return
		}
		if err := a.Worker().RestoreAll(ctx, session.SourceMPV); err != nil {
			c.log.Warn().Err(err).Msg("mpv: restore after session failed")
		}
		sleep(ctx, reconnectDelay)
	}
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// logStartup prints startup checks and connection info.
func (c *cli) logStartup() {
	c.log.Info().Msg("spotlight starting")
	logEnvStatus(c)
	logListenStatus(c, c.cfg.ListenAddr)
	c.log.Info().Str("socket", c.cfg.MPVSocket).Bool("dimOnStart", c.cfg.DimOnStart).Msg("mpv ipc")
}

// logEnvStatus reports which configuration files were found.
func logEnvStatus(c *cli) {
	for _, name := range []string{".env", "config.yaml"} {
		path := filepath.Join(c.cfg.DataDir, name)
		c.log.Info().Str("path", path).Bool("found", fileExists(path)).Msg("config check")
	}
	if c.cfg.UIPassword == "" {
		c.log.Warn().Msg("config check: no UI password, control API is open")
	}
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(c *cli, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		c.log.Info().Str("addr", addr).Msg("listen")
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	c.log.Info().Str("addr", addr).Str("url", "http://"+net.JoinHostPort(host, port)).Msg("listen")
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
