// Package agents loads the capability-bundle override file (over the
// built-in types.DefaultCapabilityBundles table agentpool.Pool spawns
// workers from) and supplies per-type CLI color schemes.
package agents

import (
	"os"

	"github.com/hive-mind/coordinator/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadCapabilityBundles loads a capability-bundle override file from path,
// falling back to types.DefaultCapabilityBundles() for any type the file
// does not mention. Follows the shape of LoadTeamsConfig, adapted from a
// per-agent model/role/color YAML table to a per-type capability table.
func LoadCapabilityBundles(path string) (map[types.AgentType]types.CapabilitySet, error) {
	bundles := types.DefaultCapabilityBundles()
	if path == "" {
		return bundles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file types.CapabilityBundlesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, b := range file.Bundles {
		bundles[b.Type] = types.NewCapabilitySet(b.Capabilities...)
	}
	return bundles, nil
}
