// Package metrics aggregates per-agent throughput/health statistics and
// checks them against configurable alert thresholds. Grounded on the
// teacher's internal/metrics collector/alert-engine split, generalized from
// per-process token/test-failure tracking to the hive-mind's task-oriented
// AgentMetrics.
package metrics

import (
	"sync"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// Collector aggregates and stores agent metrics.
type Collector interface {
	UpdateAgentMetrics(agentID string, metrics *types.AgentMetrics)
	GetAgentMetrics(agentID string) *types.AgentMetrics
	GetAllMetrics() map[string]*types.AgentMetrics
	SetAgentIdle(agentID string)
	SetAgentActive(agentID string)
	TakeSnapshot() types.MetricsSnapshot
	GetHistory() []types.MetricsSnapshot
	ResetHistory()
	IncrementTaskFailures(agentID string)
	IncrementConsecutiveRejects(agentID string)
	ResetConsecutiveRejects(agentID string)
	RemoveAgent(agentID string)
}

// MetricsCollector implements Collector.
type MetricsCollector struct {
	mu         sync.RWMutex
	metrics    map[string]*types.AgentMetrics
	history    []types.MetricsSnapshot
	maxHistory int
}

// NewCollector creates a new metrics collector.
func NewCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:    make(map[string]*types.AgentMetrics),
		history:    []types.MetricsSnapshot{},
		maxHistory: 1000,
	}
}

func (c *MetricsCollector) entry(agentID string) *types.AgentMetrics {
	m, ok := c.metrics[agentID]
	if !ok {
		m = &types.AgentMetrics{AgentID: agentID, LastUpdated: time.Now()}
		c.metrics[agentID] = m
	}
	return m
}

// UpdateAgentMetrics merges metrics into the stored entry for agentID,
// only overwriting non-zero fields so a partial update (e.g. just
// TokensUsed) doesn't clobber the rest.
func (c *MetricsCollector) UpdateAgentMetrics(agentID string, metrics *types.AgentMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.metrics[agentID]
	if !ok {
		metrics.AgentID = agentID
		metrics.LastUpdated = time.Now()
		c.metrics[agentID] = metrics
		return
	}

	if metrics.TasksCompleted > 0 {
		existing.TasksCompleted = metrics.TasksCompleted
	}
	if metrics.TokensUsed > 0 {
		existing.TokensUsed = metrics.TokensUsed
	}
	if metrics.EstimatedCost > 0 {
		existing.EstimatedCost = metrics.EstimatedCost
	}
	if metrics.TasksFailed > 0 {
		existing.TasksFailed = metrics.TasksFailed
	}
	if metrics.ConsecutiveRejects > 0 {
		existing.ConsecutiveRejects = metrics.ConsecutiveRejects
	}
	existing.LastUpdated = time.Now()
}

// GetAgentMetrics returns a copy of agentID's metrics, or nil if untracked.
func (c *MetricsCollector) GetAgentMetrics(agentID string) *types.AgentMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.metrics[agentID]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// GetAllMetrics returns a copy of every tracked agent's metrics.
func (c *MetricsCollector) GetAllMetrics() map[string]*types.AgentMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*types.AgentMetrics, len(c.metrics))
	for k, v := range c.metrics {
		cp := *v
		result[k] = &cp
	}
	return result
}

// SetAgentIdle marks agentID idle, recording the idle start time.
func (c *MetricsCollector) SetAgentIdle(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entry(agentID)
	if m.IdleSince.IsZero() {
		m.IdleSince = time.Now()
	}
	m.LastUpdated = time.Now()
}

// SetAgentActive clears agentID's idle marker.
func (c *MetricsCollector) SetAgentActive(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entry(agentID)
	m.IdleSince = time.Time{}
	m.LastUpdated = time.Now()
}

// TakeSnapshot captures the current metrics state into the history ring.
func (c *MetricsCollector) TakeSnapshot() types.MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := types.MetricsSnapshot{
		Timestamp: time.Now(),
		Agents:    make(map[string]*types.AgentMetrics, len(c.metrics)),
	}
	for k, v := range c.metrics {
		cp := *v
		snapshot.Agents[k] = &cp
	}

	c.history = append(c.history, snapshot)
	if len(c.history) > c.maxHistory {
		c.history = c.history[len(c.history)-c.maxHistory:]
	}
	return snapshot
}

// GetHistory returns a copy of the snapshot history.
func (c *MetricsCollector) GetHistory() []types.MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]types.MetricsSnapshot, len(c.history))
	copy(result, c.history)
	return result
}

// ResetHistory clears the snapshot history.
func (c *MetricsCollector) ResetHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = []types.MetricsSnapshot{}
}

// IncrementTaskFailures increases agentID's failed-task count.
func (c *MetricsCollector) IncrementTaskFailures(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.entry(agentID)
	m.TasksFailed++
	m.LastUpdated = time.Now()
}

// IncrementConsecutiveRejects increases agentID's rejection streak.
func (c *MetricsCollector) IncrementConsecutiveRejects(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.entry(agentID)
	m.ConsecutiveRejects++
	m.LastUpdated = time.Now()
}

// ResetConsecutiveRejects clears agentID's rejection streak.
func (c *MetricsCollector) ResetConsecutiveRejects(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.entry(agentID)
	m.ConsecutiveRejects = 0
	m.LastUpdated = time.Now()
}

// RemoveAgent drops agentID's metrics entirely, called once its Agent
// record is deleted.
func (c *MetricsCollector) RemoveAgent(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metrics, agentID)
}
