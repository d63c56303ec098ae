package main

import (
	"github.com/spf13/cobra"
)

func newMetricsCommand() *cobra.Command {
	var swarmID string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show per-agent counters and team rollups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			if swarmID != "" {
				var team interface{}
				if err := client.do("GET", "/swarms/"+swarmID+"/metrics", nil, &team); err != nil {
					return err
				}
				return printJSON(team)
			}

			var snapshot interface{}
			if err := client.do("GET", "/metrics", nil, &snapshot); err != nil {
				return err
			}
			return printJSON(snapshot)
		},
	}

	cmd.Flags().StringVar(&swarmID, "swarm-id", "", "show the team rollup for one swarm instead of the full snapshot")
	return cmd
}
