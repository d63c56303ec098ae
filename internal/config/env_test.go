package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvOverrides_ParsesFeatureToggles(t *testing.T) {
	environ := []string{
		"HIVE_FEATURE_AUTO_SCALE=false",
		"HIVE_FEATURE_VERBOSE=true",
		"UNRELATED=1",
	}
	overrides := LoadEnvOverrides(environ)

	assert.Equal(t, false, overrides.Features["auto_scale"])
	assert.Equal(t, true, overrides.Features["verbose"])
	_, ok := overrides.Features["unrelated"]
	assert.False(t, ok)
}

func TestEnvOverrides_ApplyOnlyOverwritesSetFields(t *testing.T) {
	cfg := Default()
	originalMonitor := cfg.FeatureFlags.Monitor

	overrides := EnvOverrides{
		MaxAgents: 20,
		Features:  map[string]bool{"verbose": true},
	}
	overrides.Apply(cfg)

	assert.Equal(t, 20, cfg.Defaults.MaxWorkers)
	assert.True(t, cfg.FeatureFlags.Verbose)
	assert.Equal(t, originalMonitor, cfg.FeatureFlags.Monitor)
}

func TestLoadEnvOverrides_ParsesMinConfidence(t *testing.T) {
	environ := []string{"HIVE_MIN_CONFIDENCE=0.75"}
	overrides := LoadEnvOverrides(environ)
	assert.InDelta(t, 0.75, overrides.MinConfidence, 0.0001)

	cfg := Default()
	overrides.Apply(cfg)
	assert.InDelta(t, 0.75, cfg.Defaults.MinConfidence, 0.0001)
}

func TestLoadEnvOverrides_ParsesDataDirAndMaxAgents(t *testing.T) {
	environ := []string{
		"HIVE_DATA_DIR=/tmp/hive-data",
		"HIVE_MAX_AGENTS=12",
		"UNRELATED=ignored",
	}
	overrides := LoadEnvOverrides(environ)
	assert.Equal(t, "/tmp/hive-data", overrides.DataDir)
	assert.Equal(t, 12, overrides.MaxAgents)
}

func TestLoadEnvOverrides_IgnoresRealProcessEnv(t *testing.T) {
	t.Setenv("HIVE_MAX_AGENTS", "999")
	overrides := LoadEnvOverrides([]string{"HIVE_MAX_AGENTS=7"})
	assert.Equal(t, 7, overrides.MaxAgents, "only the passed-in environ should be consulted, not the real process env")
}
