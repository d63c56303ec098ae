package coordinator

import (
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/memory"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// Memory exposes the Coordinator's shared memory store for callers (the
// hivectl memory verb, the HTTP memory endpoints) that need direct
// namespace get/put/search access beyond the status() snapshot.
func (c *Coordinator) Memory() *memory.Memory {
	return c.memory
}

// ListTasks returns every task currently known for swarmID in the Store's
// own order (the SQLite store: priority descending, then oldest first; the
// in-memory store: unordered). Used by the HTTP surface's paginated task
// listing.
func (c *Coordinator) ListTasks(swarmID string) ([]*tasks.Task, error) {
	all, err := c.store.ListTasks(swarmID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list tasks", err)
	}
	return all, nil
}

// Snapshot is the status() response: swarm, agents by type, task counts,
// memory stats, bus stats, health.
type Snapshot struct {
	Swarm        *types.Swarm                   `json:"swarm"`
	AgentsByType map[string]int                 `json:"agents_by_type"`
	AgentCounts  map[string]int                 `json:"agent_status_counts"`
	TaskCounts   map[string]int                 `json:"task_status_counts"`
	Memory       memory.Stats                   `json:"memory"`
	Store        store.Stats                    `json:"store"`
	DroppedMsgs  uint64                          `json:"bus_dropped_messages"`
	Healthy      bool                            `json:"healthy"`
	Metrics      map[string]*types.AgentMetrics `json:"metrics,omitempty"`
}

// Status builds a point-in-time snapshot of swarmID.
func (c *Coordinator) Status(swarmID string) (*Snapshot, error) {
	swarm, err := c.store.GetSwarm(swarmID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.UnknownEntity, "load swarm", err)
	}

	agents, err := c.store.ListAgents(swarmID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list agents", err)
	}
	agentsByType := make(map[string]int)
	agentStatusCounts := make(map[string]int)
	for _, a := range agents {
		agentsByType[string(a.Type)]++
		agentStatusCounts[string(a.Status)]++
	}

	taskList, err := c.store.ListTasks(swarmID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list tasks", err)
	}
	taskCounts := make(map[string]int)
	for _, t := range taskList {
		taskCounts[string(t.Status)]++
	}

	memStats, err := c.memory.Stats()
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "memory stats", err)
	}
	storeStats, err := c.store.Stats()
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "store stats", err)
	}

	return &Snapshot{
		Swarm:        swarm,
		AgentsByType: agentsByType,
		AgentCounts:  agentStatusCounts,
		TaskCounts:   taskCounts,
		Memory:       memStats,
		Store:        storeStats,
		DroppedMsgs:  c.bus.DroppedCount(),
		Healthy:      swarm.Status == types.SwarmActive || swarm.Status == types.SwarmInitializing,
		Metrics:      c.metricsCollector.GetAllMetrics(),
	}, nil
}
