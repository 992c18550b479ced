package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/frudas24/ddc-spotlight/internal/config"
	"github.com/frudas24/ddc-spotlight/internal/logging"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

// cli holds state shared by every subcommand.
type cli struct {
	debug   bool
	dataDir string

	cfg config.Config
	log zerolog.Logger
}

// newRootCmd builds the command tree. Without a subcommand the daemon is served.
func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "spotlight",
		Short:         "Dim every monitor except the ones showing your video",
		Long:          "spotlight follows the displays covered by the mpv window and dims all other monitors over DDC/CI, restoring them on exit.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable verbose debug logging")
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "Directory holding .env and config.yaml")

	root.AddCommand(
		newServeCmd(c),
		newListCmd(c),
		newFocusCmd(c),
		newDimCmd(c),
	)
	return root
}

// setup loads configuration and builds the logger.
func (c *cli) setup() error {
	if c.dataDir != "" {
		if err := os.Setenv("SPOTLIGHT_DATA_DIR", c.dataDir); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if logCfg.Level, err = logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if logCfg.Format, err = logging.ParseFormat(cfg.LogFormat); err != nil {
		return err
	}
	if c.debug {
		logCfg.Level = zerolog.DebugLevel
	}

	c.cfg = cfg
	c.log = logging.New(logCfg)
	return nil
}

// monitorOptions returns the options for opening the displays.
func (c *cli) monitorOptions() []spotlight.Option {
	return []spotlight.Option{spotlight.WithLogger(c.log)}
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
