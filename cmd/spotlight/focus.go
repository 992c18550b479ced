package main

import (
	"github.com/spf13/cobra"

	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

// newFocusCmd builds the one-shot spotlight command.
func newFocusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "focus NAME[,NAME...]",
		Short: "Keep the named outputs lit and dim the rest until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			names := spotlight.ParseNames(args[0])
			return spotlight.Run(func(m *spotlight.Monitors) error {
				m.Spotlight(names)
				c.log.Info().Strs("names", names).Msg("focus: press Ctrl+C to restore")
				<-ctx.Done()
				return nil
			}, c.monitorOptions()...)
		},
	}
}

// newDimCmd builds the dim-everything command.
func newDimCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dim",
		Short: "Dim every display until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return spotlight.Run(func(m *spotlight.Monitors) error {
				m.DimAll()
				c.log.Info().Msg("dim: press Ctrl+C to restore")
				<-ctx.Done()
				return nil
			}, c.monitorOptions()...)
		},
	}
}
