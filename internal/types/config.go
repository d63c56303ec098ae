package types

// CapabilityBundleConfig describes one agent type's default capability tags,
// loaded from an optional YAML override file. Follows the teams.yaml
// convention in internal/agents/config.go, generalized from a per-agent
// model/role/color table to a per-type capability bundle table.
type CapabilityBundleConfig struct {
	Type         AgentType `yaml:"type" json:"type"`
	Capabilities []string  `yaml:"capabilities" json:"capabilities"`
	Keywords     []string  `yaml:"keywords" json:"keywords"`
}

// CapabilityBundlesFile is the top-level shape of the override file.
type CapabilityBundlesFile struct {
	Bundles []CapabilityBundleConfig `yaml:"bundles"`
}

// DefaultCapabilityBundles is the built-in type -> capability-set table used
// when no override file is supplied.
func DefaultCapabilityBundles() map[AgentType]CapabilitySet {
	return map[AgentType]CapabilitySet{
		TypeResearcher:  NewCapabilitySet("web-search", "data-gathering", "analysis", "synthesis"),
		TypeCoder:       NewCapabilitySet("code-generation", "implementation", "refactoring", "debugging"),
		TypeAnalyst:     NewCapabilitySet("data-analysis", "pattern-recognition", "reporting"),
		TypeTester:      NewCapabilitySet("test-generation", "test-execution", "regression-detection"),
		TypeArchitect:   NewCapabilitySet("system-design", "api-design", "tradeoff-analysis"),
		TypeReviewer:    NewCapabilitySet("code-review", "quality-assessment", "feedback"),
		TypeOptimizer:   NewCapabilitySet("performance-tuning", "profiling", "benchmarking"),
		TypeDocumenter:  NewCapabilitySet("documentation", "writing", "summarization"),
		TypeCoordinator: NewCapabilitySet("planning", "scheduling", "delegation"),
		TypeSpecialist:  NewCapabilitySet("domain-expertise"),
	}
}

// DefaultKeywordTable maps each agent type to the description keywords the
// Scheduler and Queen use to break capability-match ties and to pick the
// most in-demand worker type to spawn. Grounded on the substring
// pattern-table technique of internal/router/router.go's ClassifyQuery.
func DefaultKeywordTable() map[AgentType][]string {
	return map[AgentType][]string{
		TypeResearcher:  {"research", "investigate", "explore", "gather", "survey"},
		TypeCoder:       {"implement", "code", "build", "develop", "write function", "fix bug"},
		TypeAnalyst:     {"analyze", "analysis", "evaluate", "assess", "report"},
		TypeTester:      {"test", "verify", "validate", "regression"},
		TypeArchitect:   {"design", "architecture", "structure", "plan system"},
		TypeReviewer:    {"review", "audit", "critique"},
		TypeOptimizer:   {"optimize", "performance", "speed up", "profile"},
		TypeDocumenter:  {"document", "explain", "write docs", "summarize"},
		TypeCoordinator: {"coordinate", "orchestrate", "schedule", "delegate"},
		TypeSpecialist:  {"specialized", "expert", "custom"},
	}
}
