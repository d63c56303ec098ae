// Package store persists swarms, agents, tasks, and proposals. The default
// implementation is backed by an embedded SQLite database (modernc.org/sqlite,
// a pure-Go driver, avoiding cgo); an in-memory implementation of the same
// interface is used by tests. Nothing switches to it when the SQLite store
// fails: hivectl spawn exits with an error instead.
//
// Grounded on internal/memory/db.go's migration and connection-pool
// conventions (go:embed schema, schema_version table, WAL + busy_timeout
// pragmas), generalized from a chat/recon-specific schema to the
// coordinator's swarm/agent/task/proposal entities.
package store

import (
	"time"

	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// Store is the persistence boundary every coordinator component writes
// through. Implementations must be safe for concurrent use.
type Store interface {
	// Swarms
	PutSwarm(s *types.Swarm) error
	GetSwarm(id string) (*types.Swarm, error)
	ListSwarms() ([]*types.Swarm, error)
	DeleteSwarm(id string) error

	// Agents
	PutAgent(a *types.Agent) error
	GetAgent(id string) (*types.Agent, error)
	ListAgents(swarmID string) ([]*types.Agent, error)
	DeleteAgent(id string) error

	// Tasks
	PutTask(t *tasks.Task) error
	GetTask(id string) (*tasks.Task, error)
	ListTasks(swarmID string) ([]*tasks.Task, error)
	DeleteTask(id string) error

	// AssignTask atomically marks a task assigned to an agent and the
	// agent busy with that task, so the two entities never observably
	// disagree about who owns the work.
	AssignTask(task *tasks.Task, agent *types.Agent) error

	// Proposals
	PutProposal(p *types.Proposal) error
	GetProposal(id string) (*types.Proposal, error)
	ListProposals(swarmID string) ([]*types.Proposal, error)

	// Memory entries back internal/memory's namespaced key/value store.
	PutMemoryEntry(e *types.MemoryEntry) error
	GetMemoryEntry(namespace, key string) (*types.MemoryEntry, error)
	DeleteMemoryEntry(namespace, key string) error
	ListMemoryEntries(namespace string) ([]*types.MemoryEntry, error)
	ExpiredMemoryEntries(now time.Time) ([]*types.MemoryEntry, error)

	// Stats returns coarse row counts for the status surface.
	Stats() (Stats, error)

	Close() error
}

// Stats is a snapshot of row counts across every table, used by the
// Coordinator's status() operation.
type Stats struct {
	Swarms    int
	Agents    int
	Tasks     int
	Proposals int
	MemoryKeys int
}
