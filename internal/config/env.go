package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvOverrides captures the environment variables read through viper's env
// binding: HIVE_DATA_DIR, HIVE_MIN_CONFIDENCE,
// HIVE_MAX_AGENTS, and any HIVE_FEATURE_<NAME> toggle. These never mutate
// an already-initialized swarm's contract — they only seed defaults for
// swarms created after the process starts.
type EnvOverrides struct {
	DataDir       string
	MinConfidence float64
	MaxAgents     int
	Features      map[string]bool
}

// LoadEnvOverrides binds the HIVE_* environment prefix with viper and
// returns whichever of the four overrides were actually set. Follows
// internal/cli root.go's initConfig(), generalized from a single prefix
// automatic-env bind to hivectl's smaller,
// explicitly-named variable set (automatic env alone can't express the
// HIVE_FEATURE_<NAME> wildcard family). Takes environ explicitly (callers
// pass os.Environ()) rather than reading the process environment directly,
// so the whole HIVE_* surface is driven off one list instead of mixing
// viper's automatic-env lookup with a second, separately-parsed slice.
func LoadEnvOverrides(environ []string) EnvOverrides {
	const prefix = "HIVE_"

	raw := make(map[string]interface{}, len(environ))
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))
		raw[name] = val
	}

	v := viper.New()
	_ = v.MergeConfigMap(raw)

	out := EnvOverrides{Features: make(map[string]bool)}

	if dir := v.GetString("data_dir"); dir != "" {
		out.DataDir = dir
	}
	if s := v.GetString("min_confidence"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out.MinConfidence = f
		}
	}
	if s := v.GetString("max_agents"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			out.MaxAgents = n
		}
	}

	const featurePrefix = "feature_"
	for name, val := range raw {
		if !strings.HasPrefix(name, featurePrefix) {
			continue
		}
		s, _ := val.(string)
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			continue
		}
		out.Features[strings.TrimPrefix(name, featurePrefix)] = enabled
	}

	return out
}

// Apply merges e onto cfg, only overwriting fields that were actually set.
func (e EnvOverrides) Apply(cfg *Config) {
	if e.MaxAgents > 0 {
		cfg.Defaults.MaxWorkers = e.MaxAgents
	}
	if e.MinConfidence > 0 {
		cfg.Defaults.MinConfidence = e.MinConfidence
	}
	if auto, ok := e.Features["auto_scale"]; ok {
		cfg.FeatureFlags.AutoScale = auto
	}
	if enc, ok := e.Features["encryption"]; ok {
		cfg.FeatureFlags.Encryption = enc
	}
	if mon, ok := e.Features["monitor"]; ok {
		cfg.FeatureFlags.Monitor = mon
	}
	if verb, ok := e.Features["verbose"]; ok {
		cfg.FeatureFlags.Verbose = verb
	}
}
