package main

import (
	"github.com/spf13/cobra"

	"github.com/muurk/navien/internal/discovery"
	"github.com/muurk/navien/internal/ui"
)

func init() {
	bridgesCmd.Flags().Duration("wait", discovery.DefaultTimeout, "How long to listen for announcements")
	rootCmd.AddCommand(bridgesCmd)
}

type peerJSON struct {
	Instance string `json:"instance"`
	Address  string `json:"address"`
	Version  string `json:"version"`
	URL      string `json:"url"`
}

var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "List bridges advertised on the local network",
	Long: `Listen for bridges started with --advertise and print their WebSocket URLs.

Only bridges are found this way; controllers are reached through the relay.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetDuration("wait")

		peers, err := discovery.Browse(cmd.Context(), wait)
		if err != nil {
			return err
		}

		if jsonOutput() {
			out := make([]peerJSON, 0, len(peers))
			for _, p := range peers {
				out = append(out, peerJSON{p.Instance, p.Addr(), p.Version(), p.URL()})
			}
			return printJSON(out)
		}

		printer := ui.NewPrinter(nil)
		if len(peers) == 0 {
			printer.PrintWarning("No bridges found", []ui.Detail{
				ui.D("Waited", wait.String()),
				ui.D("Service", discovery.ServiceType),
			})
			return nil
		}
		details := make([]ui.Detail, 0, len(peers))
		for _, p := range peers {
			details = append(details, ui.D(p.Instance, p.URL()+" (version "+p.Version()+")"))
		}
		printer.PrintSuccess("Bridges found", details)
		return nil
	},
}
