// Package config loads and validates hivectl's layered configuration:
// ~/.hive-mind/config.yaml, overridden by HIVE_* environment variables,
// overridden in turn by command-line flags. Follows the internal/cli
// root/config split (viper-driven YAML file + env binding) and its
// internal/config.Config/Default/Validate/Save shape.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hive-mind/coordinator/internal/types"
)

// CurrentVersion is written into newly generated config files and checked
// on load, so a future breaking layout change can detect and migrate it.
const CurrentVersion = "1"

// Config is the on-disk shape of ~/.hive-mind/config.yaml: a versioned
// object with a defaults block and a feature-flags block, rendered as YAML.
type Config struct {
	Version      string       `yaml:"version"`
	Defaults     Defaults     `yaml:"defaults"`
	FeatureFlags FeatureFlags `yaml:"feature_flags"`
}

// Defaults seeds every newly initialized swarm unless overridden by a
// command-line flag.
type Defaults struct {
	QueenMode            string  `yaml:"queen_mode"`
	MaxWorkers           int     `yaml:"max_workers"`
	StealIdleMS          int     `yaml:"steal_idle_ms"`
	QueueHighWatermark   int     `yaml:"queue_high_watermark"`
	ConsensusAlgorithm   string  `yaml:"consensus_algorithm"`
	ConsensusQuorumFloor float64 `yaml:"consensus_quorum_floor"`
	MinConfidence        float64 `yaml:"min_confidence"`
}

// FeatureFlags toggles optional subsystems. Encryption is a placeholder —
// no cipher is implemented, the flag only gates whether hivectl warns that
// at-rest encryption was requested but unavailable.
type FeatureFlags struct {
	AutoScale  bool `yaml:"auto_scale"`
	Encryption bool `yaml:"encryption"`
	Monitor    bool `yaml:"monitor"`
	Verbose    bool `yaml:"verbose"`
}

// Default returns the configuration a freshly initialized ~/.hive-mind
// directory is seeded with.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Defaults: Defaults{
			QueenMode:            string(types.QueenCentralized),
			MaxWorkers:           types.DefaultMaxWorkers,
			StealIdleMS:          30000,
			QueueHighWatermark:   50,
			ConsensusAlgorithm:   string(types.AlgorithmMajority),
			ConsensusQuorumFloor: 0.5,
		},
		FeatureFlags: FeatureFlags{
			AutoScale:  true,
			Encryption: false,
			Monitor:    false,
			Verbose:    false,
		},
	}
}

// Load reads and validates path, returning Default() if the file does not
// exist yet (the caller is expected to Save() it on first use, mirroring
// `hivectl init`'s bootstrap behavior).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %q (want %q)", cfg.Version, CurrentVersion)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	switch types.QueenMode(c.Defaults.QueenMode) {
	case types.QueenCentralized, types.QueenDistributed, types.QueenStrategic:
	default:
		return fmt.Errorf("invalid queen_mode: %s", c.Defaults.QueenMode)
	}

	if c.Defaults.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive")
	}
	if c.Defaults.StealIdleMS <= 0 {
		return fmt.Errorf("steal_idle_ms must be positive")
	}
	if c.Defaults.QueueHighWatermark <= 0 {
		return fmt.Errorf("queue_high_watermark must be positive")
	}
	if c.Defaults.ConsensusQuorumFloor <= 0 || c.Defaults.ConsensusQuorumFloor > 1 {
		return fmt.Errorf("consensus_quorum_floor must be in (0, 1]")
	}
	if c.Defaults.MinConfidence < 0 || c.Defaults.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1]")
	}

	switch types.ConsensusAlgorithm(c.Defaults.ConsensusAlgorithm) {
	case types.AlgorithmMajority, types.AlgorithmWeighted, types.AlgorithmByzantine:
	default:
		return fmt.Errorf("invalid consensus_algorithm: %s", c.Defaults.ConsensusAlgorithm)
	}

	return nil
}

// DefaultPath returns ~/.hive-mind/config.yaml, resolving HIVE_DATA_DIR
// first.
func DefaultPath() (string, error) {
	if dir := os.Getenv("HIVE_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".hive-mind", "config.yaml"), nil
}

// DataDir returns the directory hivectl stores its SQLite database and
// config file under, honoring the HIVE_DATA_DIR override.
func DataDir() (string, error) {
	if dir := os.Getenv("HIVE_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".hive-mind"), nil
}
