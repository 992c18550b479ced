package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frudas24/ddc-spotlight/internal/monitor"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

type listing struct {
	Outputs  []monitor.Monitor      `json:"outputs"`
	Displays []spotlight.DisplayInfo `json:"displays"`
	Identity map[string][]string    `json:"identity"`
}

// newListCmd builds the diagnostic dump command.
func newListCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show OS outputs, DDC/CI displays and how they map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var l listing
			err := spotlight.Run(func(m *spotlight.Monitors) error {
				l.Displays = m.Describe()
				l.Identity = m.Identity().Entries()
				return nil
			}, c.monitorOptions()...)
			if err != nil {
				return err
			}
			outputs, err := monitor.ListMonitors()
			if err != nil {
				c.log.Warn().Err(err).Msg("list: outputs unavailable")
			}
			l.Outputs = outputs

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(l)
			}
			return printListing(cmd.OutOrStdout(), l)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// printListing writes a human readable dump.
func printListing(out io.Writer, l listing) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTPUT\tGEOMETRY\tDISPLAYS")
	names := make([]string, 0, len(l.Identity))
	for name := range l.Identity {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		geometry := "-"
		if m, ok := monitor.GetMonitorByName(l.Outputs, name); ok {
			geometry = fmt.Sprintf("%dx%d+%d+%d", m.W, m.H, m.X, m.Y)
			if m.Primary {
				geometry += " primary"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, geometry, strings.Join(l.Identity[name], ", "))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DISPLAY\tKIND\tDESCRIPTION\tBASELINE")
	for _, d := range l.Displays {
		var parts []string
		for _, code := range d.Capabilities {
			if v, ok := d.Baselines[code]; ok {
				parts = append(parts, fmt.Sprintf("%s=%d/%d", code, v.Current, v.Max))
			}
		}
		baseline := strings.Join(parts, " ")
		if baseline == "" {
			baseline = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Kind, d.Description, baseline)
	}
	return tw.Flush()
}
