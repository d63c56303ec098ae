package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hive-mind/coordinator/internal/config"
	"github.com/hive-mind/coordinator/internal/coordinator"
	"github.com/hive-mind/coordinator/internal/httpapi"
	"github.com/hive-mind/coordinator/internal/instance"
	"github.com/hive-mind/coordinator/internal/quotes"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/types"
)

const defaultDaemonPort = 7888

func newSpawnCommand() *cobra.Command {
	var (
		queenType  string
		maxWorkers int
		consensus  string
		memorySize int
		autoScale  bool
		encryption bool
		monitor    bool
		name       string
	)

	cmd := &cobra.Command{
		Use:   "spawn <objective>",
		Short: "Start the coordinator daemon and submit an objective",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || args[0] == "" {
				return usageErrf("spawn requires exactly one <objective> argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			objective := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if queenType == "" {
				queenType = cfg.Defaults.QueenMode
			}
			if maxWorkers <= 0 {
				maxWorkers = cfg.Defaults.MaxWorkers
			}
			if consensus == "" {
				consensus = cfg.Defaults.ConsensusAlgorithm
			}

			switch types.QueenMode(queenType) {
			case types.QueenCentralized, types.QueenDistributed, types.QueenStrategic:
			default:
				return usageErrf("invalid --queen-type %q", queenType)
			}
			switch types.ConsensusAlgorithm(consensus) {
			case types.AlgorithmMajority, types.AlgorithmWeighted, types.AlgorithmByzantine:
			default:
				return usageErrf("invalid --consensus %q", consensus)
			}
			if maxWorkers <= 0 {
				return usageErrf("--max-workers must be positive")
			}

			return runDaemon(cfg, daemonSpawnOptions{
				objective:  objective,
				name:       name,
				queenMode:  types.QueenMode(queenType),
				maxWorkers: maxWorkers,
				consensus:  types.ConsensusAlgorithm(consensus),
				memorySize: memorySize,
				autoScale:  autoScale,
				encryption: encryption,
				monitor:    monitor,
			})
		},
	}

	cmd.Flags().StringVar(&queenType, "queen-type", "", "queen mode: centralized|distributed|strategic (default from config)")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "maximum worker agents (default from config)")
	cmd.Flags().StringVar(&consensus, "consensus", "", "consensus algorithm reported at startup: majority|weighted|byzantine (default from config); proposals that name no algorithm use majority")
	cmd.Flags().IntVar(&memorySize, "memory-size", 0, "max entries for the size-based memory namespace (0 = built-in namespace default)")
	cmd.Flags().BoolVar(&autoScale, "auto-scale", true, "enable the Queen's auto-scale cycle")
	cmd.Flags().BoolVar(&encryption, "encryption", false, "reserved: encrypt the durable store at rest")
	cmd.Flags().BoolVar(&monitor, "monitor", false, "use config-derived alert thresholds (the periodic alert sweep otherwise runs with built-in thresholds)")
	cmd.Flags().StringVar(&name, "name", "", "swarm name")
	return cmd
}

type daemonSpawnOptions struct {
	objective  string
	name       string
	queenMode  types.QueenMode
	maxWorkers int
	consensus  types.ConsensusAlgorithm
	memorySize int
	autoScale  bool
	encryption bool
	monitor    bool
}

func runDaemon(cfg *config.Config, opts daemonSpawnOptions) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return wrapRuntimeErr(err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return runtimeErrf("create data directory: %w", err)
	}

	port := flagPort
	if port <= 0 {
		port = defaultDaemonPort
	}

	pidFilePath := filepath.Join(dataDir, "hivectl.pid")
	statePath := filepath.Join(dataDir, "hivectl.state.json")
	mgr := instance.NewManager(pidFilePath, statePath, port)

	if existing, err := mgr.CheckExistingInstance(); err != nil {
		return runtimeErrf("check existing instance: %w", err)
	} else if existing != nil {
		resolver := instance.NewConflictResolver(mgr, instance.IsInteractive())
		if err := resolver.Resolve(existing); err != nil {
			return runtimeErrf("resolve instance conflict: %w", err)
		}
		port = mgr.GetPort()
	}

	if err := mgr.AcquireLock(); err != nil {
		return runtimeErrf("acquire instance lock: %w", err)
	}
	defer mgr.ReleaseLock()

	if opts.encryption || cfg.FeatureFlags.Encryption {
		log.Warn("at-rest encryption was requested but is not available; the store is written unencrypted")
	}

	dbPath := filepath.Join(dataDir, "hive.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return runtimeErrf("open store: %w", err)
	}
	defer st.Close()

	namespaces := types.DefaultNamespaces()
	if opts.memorySize > 0 {
		for i := range namespaces {
			if namespaces[i].Policy == types.RetentionSizeBased {
				namespaces[i].MaxEntries = opts.memorySize
			}
		}
	}

	coord := coordinator.New(st, log,
		coordinator.WithNamespaces(namespaces),
		coordinator.WithParticipationFloor(cfg.Defaults.ConsensusQuorumFloor),
		coordinator.WithMinConfidence(cfg.Defaults.MinConfidence),
		coordinator.WithQueueHighWatermark(cfg.Defaults.QueueHighWatermark),
	)
	if opts.monitor {
		coord.SetAlertThresholds(types.AlertThresholds{
			TaskFailuresMax:       5,
			IdleTimeMaxSeconds:    cfg.Defaults.StealIdleMS / 1000,
			QueueBacklogMax:       cfg.Defaults.QueueHighWatermark,
			TokenUsageMax:         1_000_000,
			ConsecutiveRejectsMax: 3,
		})
	}

	queenCfg := coordinator.Config{
		Name:       opts.name,
		QueenMode:  opts.queenMode,
		MaxWorkers: opts.maxWorkers,
	}
	if !opts.autoScale {
		// A very long cycle interval approximates "disabled" without
		// adding a second code path through the Queen's run loop.
		queenCfg.CycleInterval = 365 * 24 * time.Hour
	}

	swarmID, err := coord.SubmitObjective(opts.objective, queenCfg)
	if err != nil {
		return runtimeErrf("submit objective: %w", err)
	}

	if err := mgr.WritePIDFile(os.Getpid(), port, dataDir); err != nil {
		return runtimeErrf("write pidfile: %w", err)
	}
	defer mgr.RemovePIDFile()

	server := httpapi.New(coord, fmt.Sprintf(":%d", port), log)

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	fmt.Printf("Swarm %s running (queen=%s workers=%d consensus=%s) on port %d\n",
		swarmID, opts.queenMode, opts.maxWorkers, opts.consensus, port)
	fmt.Println(quotes.SpawnQuote())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			return runtimeErrf("httpapi server: %w", err)
		}
		return nil
	}

	fmt.Println(quotes.ShutdownQuote())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		if err := coord.Shutdown(10 * time.Second); err != nil {
			log.WithError(err).Warn("coordinator shutdown")
		}
		if err := server.Shutdown(); err != nil {
			log.WithError(err).Warn("httpapi shutdown")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("shutdown drain window exceeded, forcing exit")
	}
	return nil
}
