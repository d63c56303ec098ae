package agents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hive-mind/coordinator/internal/types"
)

func TestLoadCapabilityBundles_NoPathReturnsDefaults(t *testing.T) {
	bundles, err := LoadCapabilityBundles("")
	if err != nil {
		t.Fatalf("LoadCapabilityBundles(\"\") error = %v", err)
	}
	if !bundles[types.TypeCoder].Has("code-generation") {
		t.Error("expected default coder bundle to include code-generation")
	}
}

func TestLoadCapabilityBundles_OverridesOneType(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bundles.yaml")

	configYAML := `bundles:
  - type: coder
    capabilities: ["custom-skill"]
    keywords: ["custom"]
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	bundles, err := LoadCapabilityBundles(configPath)
	if err != nil {
		t.Fatalf("LoadCapabilityBundles() error = %v", err)
	}

	if !bundles[types.TypeCoder].Has("custom-skill") {
		t.Error("expected overridden coder bundle to include custom-skill")
	}
	if bundles[types.TypeCoder].Has("code-generation") {
		t.Error("expected override to replace, not merge, the default bundle")
	}
	// Untouched types keep their defaults.
	if !bundles[types.TypeResearcher].Has("web-search") {
		t.Error("expected untouched researcher bundle to keep its default")
	}
}

func TestLoadCapabilityBundles_NonExistentPath(t *testing.T) {
	_, err := LoadCapabilityBundles("/nonexistent/path/bundles.yaml")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadCapabilityBundles_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadCapabilityBundles(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadCapabilityBundles_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")

	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	bundles, err := LoadCapabilityBundles(configPath)
	if err != nil {
		t.Fatalf("LoadCapabilityBundles() should not error on empty file: %v", err)
	}
	if !bundles[types.TypeCoder].Has("code-generation") {
		t.Error("expected defaults to survive an empty override file")
	}
}
