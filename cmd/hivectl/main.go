// Command hivectl is the operator-facing front door for the hive-mind
// coordinator: it starts the daemon (spawn), and talks to an already
// running daemon over HTTP for every other verb (status, consensus,
// memory, metrics, shutdown).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hive-mind/coordinator/internal/config"
)

var (
	flagConfigFile string
	flagDataDir    string
	flagPort       int
	flagVerbose    bool

	log *logrus.Entry
)

// exitCodeError carries the process exit code a failure should produce:
// 0 on success, 1 on any unrecoverable error, 2 on invalid usage.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func usageErrf(format string, a ...interface{}) error {
	return &exitCodeError{code: 2, err: fmt.Errorf(format, a...)}
}

func runtimeErrf(format string, a ...interface{}) error {
	return &exitCodeError{code: 1, err: fmt.Errorf(format, a...)}
}

func wrapRuntimeErr(err error) error {
	if err == nil {
		return nil
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return err
	}
	return &exitCodeError{code: 1, err: err}
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			fmt.Fprintln(os.Stderr, "Error:", ec.err)
			os.Exit(ec.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hivectl",
		Short:         "Operate a hive-mind coordinator swarm",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default ~/.hive-mind/config.yaml)")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.hive-mind, or $HIVE_DATA_DIR)")
	cmd.PersistentFlags().IntVar(&flagPort, "port", 0, "daemon HTTP port (default: resolved from the running daemon's pidfile, or 7888)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newInitCommand(),
		newSpawnCommand(),
		newStatusCommand(),
		newConsensusCommand(),
		newMemoryCommand(),
		newMetricsCommand(),
		newShutdownCommand(),
	)
	return cmd
}

func setupLogger() {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		l.SetLevel(logrus.DebugLevel)
	}
	log = logrus.NewEntry(l)
}

// loadConfig layers ~/.hive-mind/config.yaml under HIVE_* environment
// overrides (flags, handled by each command's own cobra bindings, win
// over both).
func loadConfig() (*config.Config, error) {
	path := flagConfigFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, runtimeErrf("resolve config path: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, runtimeErrf("load config: %w", err)
	}

	config.LoadEnvOverrides(os.Environ()).Apply(cfg)
	return cfg, nil
}

func resolveDataDir() (string, error) {
	if flagDataDir != "" {
		return flagDataDir, nil
	}
	return config.DataDir()
}
