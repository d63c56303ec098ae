package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hive-mind/coordinator/internal/config"
	"github.com/hive-mind/coordinator/internal/quotes"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file and data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := resolveDataDir()
			if err != nil {
				return wrapRuntimeErr(err)
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return runtimeErrf("create data directory: %w", err)
			}

			path := flagConfigFile
			if path == "" {
				path = filepath.Join(dataDir, "config.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return usageErrf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := cfg.Save(path); err != nil {
				return runtimeErrf("write config: %w", err)
			}

			quotes.Init(dataDir)
			fmt.Printf("Initialized hive-mind configuration at %s\n", path)
			fmt.Printf("Data directory: %s\n", dataDir)
			fmt.Println(quotes.SpawnQuote())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
