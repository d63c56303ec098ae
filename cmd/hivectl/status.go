package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hive-mind/coordinator/internal/instance"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [swarm-id]",
		Short: "Show daemon and swarm status",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageErrf("status takes at most one swarm-id argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return reportDaemonStatus()
			}
			return reportSwarmStatus(args[0])
		},
	}
	return cmd
}

func reportDaemonStatus() error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return wrapRuntimeErr(err)
	}
	mgr := instance.NewManager(filepath.Join(dataDir, "hivectl.pid"), "", defaultDaemonPort)
	info, err := mgr.CheckExistingInstance()
	if err != nil {
		return runtimeErrf("check running instance: %w", err)
	}
	if info == nil {
		fmt.Println("No hivectl daemon is running.")
		return nil
	}
	fmt.Printf("Daemon running: PID=%d port=%d responding=%v started=%s\n",
		info.PID, info.Port, info.IsResponding, info.StartTime.Format("2006-01-02 15:04:05"))
	return nil
}

func reportSwarmStatus(swarmID string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	var snapshot map[string]interface{}
	if err := client.do("GET", "/swarms/"+swarmID, nil, &snapshot); err != nil {
		return err
	}
	return printJSON(snapshot)
}
