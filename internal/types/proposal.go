package types

import "time"

// ConsensusAlgorithm selects how a Proposal's votes are tallied.
type ConsensusAlgorithm string

const (
	AlgorithmMajority   ConsensusAlgorithm = "majority"
	AlgorithmWeighted   ConsensusAlgorithm = "weighted"
	AlgorithmByzantine  ConsensusAlgorithm = "byzantine"
)

// ProposalStatus is the lifecycle state of a Proposal.
type ProposalStatus string

const (
	ProposalOpen     ProposalStatus = "open"
	ProposalDecided  ProposalStatus = "decided"
	ProposalTimedOut ProposalStatus = "timed_out"
)

// NoConsensus is the decision value when no option reaches the required
// threshold (Byzantine) or participation never reaches the quorum floor.
const NoConsensus = "no_consensus"

// Proposal is a vote request carrying a topic, option set, algorithm, and deadline.
type Proposal struct {
	ID             string             `json:"id"`
	SwarmID        string             `json:"swarm_id"`
	Topic          string             `json:"topic"`
	Options        []string           `json:"options"`
	Algorithm      ConsensusAlgorithm `json:"algorithm"`
	Deadline       time.Time          `json:"deadline"`
	Status         ProposalStatus     `json:"status"`
	Votes          map[string]string  `json:"votes"` // voter id -> option
	EligibleVoters []string           `json:"eligible_voters,omitempty"`
	WeightedVoter  string             `json:"weighted_voter,omitempty"` // e.g. the Queen, weighted algorithm
	Decision       string             `json:"decision,omitempty"`
	Confidence     float64            `json:"confidence"`
	CreatedAt      time.Time          `json:"created_at"`
	ClosedAt       time.Time          `json:"closed_at,omitempty"`
}

// MemoryRetentionPolicy is the rule by which a namespace drops entries.
type MemoryRetentionPolicy string

const (
	RetentionPersistent MemoryRetentionPolicy = "persistent"
	RetentionTimeBased  MemoryRetentionPolicy = "time-based"
	RetentionSizeBased  MemoryRetentionPolicy = "size-based"
)

// NamespaceConfig describes a memory namespace's retention rule.
type NamespaceConfig struct {
	Name       string                `json:"name"`
	Policy     MemoryRetentionPolicy `json:"policy"`
	MaxEntries int                   `json:"max_entries,omitempty"`
	TTL        time.Duration         `json:"ttl,omitempty"`
}

// DefaultNamespaces returns the minimum namespace set required by §4.2.
func DefaultNamespaces() []NamespaceConfig {
	return []NamespaceConfig{
		{Name: "default", Policy: RetentionPersistent},
		{Name: "task-results", Policy: RetentionTimeBased, TTL: 30 * 24 * time.Hour},
		{Name: "agent-state", Policy: RetentionTimeBased, TTL: 24 * time.Hour},
		{Name: "learning-data", Policy: RetentionPersistent},
		{Name: "performance-metrics", Policy: RetentionSizeBased, MaxEntries: 10000},
		{Name: "decisions", Policy: RetentionPersistent},
	}
}

// MemoryEntry is one namespaced (namespace,key) -> value record.
type MemoryEntry struct {
	Namespace    string    `json:"namespace"`
	Key          string    `json:"key"`
	Value        []byte    `json:"value"`
	TTLSeconds   int64     `json:"ttl"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	AccessCount  int64     `json:"access_count"`
	LastAccessAt time.Time `json:"last_access_at,omitempty"`
	Compressed   bool      `json:"compressed,omitempty"`
	OriginalLen  int       `json:"original_length,omitempty"`
}

// Expired reports whether the entry's TTL has elapsed as of now.
func (e *MemoryEntry) Expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return now.After(e.ExpiresAt)
}
