// Package types holds the cross-cutting domain entities shared by every
// component of the hive-mind coordinator: swarms, agents, proposals, and
// the capability model the Scheduler and Agent Pool match against.
package types

import (
	"fmt"
	"time"
)

// SwarmTopology is the logical communication pattern between Queen and workers.
type SwarmTopology string

const (
	TopologyMesh         SwarmTopology = "mesh"
	TopologyHierarchical SwarmTopology = "hierarchical"
	TopologyRing         SwarmTopology = "ring"
	TopologyStar         SwarmTopology = "star"
)

// QueenMode determines how the Queen reaches decisions.
type QueenMode string

const (
	QueenCentralized QueenMode = "centralized"
	QueenDistributed QueenMode = "distributed"
	QueenStrategic   QueenMode = "strategic"
)

// SwarmStatus is the lifecycle state of a Swarm.
type SwarmStatus string

const (
	SwarmInitializing SwarmStatus = "initializing"
	SwarmActive       SwarmStatus = "active"
	SwarmPaused       SwarmStatus = "paused"
	SwarmShuttingDown SwarmStatus = "shutting_down"
	SwarmTerminated   SwarmStatus = "terminated"
)

// DefaultMaxWorkers bounds a swarm's worker pool when the caller does not
// specify one at initialization.
const DefaultMaxWorkers = 8

// Swarm is a running instance of the coordinator serving one objective.
type Swarm struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Objective  string        `json:"objective"`
	Topology   SwarmTopology `json:"topology"`
	QueenMode  QueenMode     `json:"queen_mode"`
	Status     SwarmStatus   `json:"status"`
	MaxWorkers int           `json:"max_workers"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CanTransitionTopology reports whether the topology may still be changed.
// Per the data-model invariant, topology is immutable once the swarm has
// left the initializing state.
func (s *Swarm) CanTransitionTopology() bool {
	return s.Status == SwarmInitializing
}

// AgentRole distinguishes the Queen from ordinary workers.
type AgentRole string

const (
	RoleQueen  AgentRole = "queen"
	RoleWorker AgentRole = "worker"
)

// AgentType is a capability bundle identifier.
type AgentType string

const (
	TypeResearcher  AgentType = "researcher"
	TypeCoder       AgentType = "coder"
	TypeAnalyst     AgentType = "analyst"
	TypeTester      AgentType = "tester"
	TypeArchitect   AgentType = "architect"
	TypeReviewer    AgentType = "reviewer"
	TypeOptimizer   AgentType = "optimizer"
	TypeDocumenter  AgentType = "documenter"
	TypeCoordinator AgentType = "coordinator"
	TypeSpecialist  AgentType = "specialist"
)

// AgentStatus is the per-agent state machine value.
type AgentStatus string

const (
	StatusIdle    AgentStatus = "idle"
	StatusBusy    AgentStatus = "busy"
	StatusActive  AgentStatus = "active"
	StatusError   AgentStatus = "error"
	StatusOffline AgentStatus = "offline"
)

// validAgentTransitions enumerates the permitted state-machine edges of §4.4.
var validAgentTransitions = map[AgentStatus][]AgentStatus{
	StatusIdle:    {StatusBusy, StatusOffline},
	StatusBusy:    {StatusIdle, StatusError},
	StatusActive:  {StatusIdle, StatusBusy, StatusError},
	StatusError:   {StatusOffline},
	StatusOffline: {},
}

// CapabilitySet is an immutable, hashable set of capability tags.
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a CapabilitySet from a tag list.
func NewCapabilitySet(tags ...string) CapabilitySet {
	cs := make(CapabilitySet, len(tags))
	for _, t := range tags {
		cs[t] = struct{}{}
	}
	return cs
}

// Has reports constant-time membership.
func (c CapabilitySet) Has(tag string) bool {
	_, ok := c[tag]
	return ok
}

// Superset reports whether c contains every tag in other.
func (c CapabilitySet) Superset(other CapabilitySet) bool {
	for tag := range other {
		if !c.Has(tag) {
			return false
		}
	}
	return true
}

// Slice returns the capability tags in no particular order.
func (c CapabilitySet) Slice() []string {
	out := make([]string, 0, len(c))
	for tag := range c {
		out = append(out, tag)
	}
	return out
}

// Agent represents a worker or Queen agent running inside a swarm.
type Agent struct {
	ID              string        `json:"id"`
	SwarmID         string        `json:"swarm_id"`
	Role            AgentRole     `json:"role"`
	Type            AgentType     `json:"type"`
	Status          AgentStatus   `json:"status"`
	Capabilities    CapabilitySet `json:"capabilities"`
	CurrentTaskID   string        `json:"current_task_id,omitempty"`
	TasksCompleted  int           `json:"tasks_completed"`
	InFlightTasks   int           `json:"in_flight_tasks"`
	LastCompletedAt time.Time     `json:"last_completed_at,omitempty"`
	IdleSince       time.Time     `json:"idle_since,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// TransitionTo attempts to move the agent to a new status, enforcing the
// state machine. Moving to idle clears CurrentTaskID and stamps IdleSince;
// moving to busy clears IdleSince. CurrentTaskID is not set here, and it is
// kept on a move to error.
func (a *Agent) TransitionTo(newStatus AgentStatus) error {
	if newStatus == a.Status {
		return nil
	}
	allowed := validAgentTransitions[a.Status]
	ok := false
	for _, s := range allowed {
		if s == newStatus {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid agent transition from %s to %s", a.Status, newStatus)
	}
	a.Status = newStatus
	if newStatus == StatusIdle {
		a.CurrentTaskID = ""
		a.IdleSince = time.Now()
	}
	if newStatus == StatusBusy {
		a.IdleSince = time.Time{}
	}
	return nil
}

// Invariant checks status=busy <=> current_task_id != "".
func (a *Agent) Invariant() bool {
	if a.Status == StatusBusy {
		return a.CurrentTaskID != ""
	}
	return a.CurrentTaskID == ""
}
