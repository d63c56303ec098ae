package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShutdownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Drain and stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var resp map[string]string
			if err := client.do("POST", "/shutdown", nil, &resp); err != nil {
				return err
			}
			fmt.Println("Shutdown requested:", resp["status"])
			return nil
		},
	}
	return cmd
}
