package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}
	if c.metrics == nil {
		t.Error("metrics map should be initialized")
	}
	if c.history == nil {
		t.Error("history slice should be initialized")
	}
	if c.maxHistory != 1000 {
		t.Errorf("maxHistory = %d, want 1000", c.maxHistory)
	}
}

func TestUpdateAgentMetrics(t *testing.T) {
	c := NewCollector()

	metrics := &types.AgentMetrics{
		AgentID:    "Agent1",
		TokensUsed: 5000,
		TasksFailed: 2,
	}
	c.UpdateAgentMetrics("Agent1", metrics)

	retrieved := c.GetAgentMetrics("Agent1")
	if retrieved == nil {
		t.Fatal("GetAgentMetrics returned nil")
	}
	if retrieved.TokensUsed != 5000 {
		t.Errorf("TokensUsed = %d, want 5000", retrieved.TokensUsed)
	}
	if retrieved.TasksFailed != 2 {
		t.Errorf("TasksFailed = %d, want 2", retrieved.TasksFailed)
	}
}

func TestUpdateAgentMetricsMerge(t *testing.T) {
	c := NewCollector()

	// Initial metrics
	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{
		AgentID:     "Agent1",
		TokensUsed:  5000,
		TasksFailed: 2,
		EstimatedCost: 0.50,
	})

	// Update only TokensUsed (non-zero)
	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{
		AgentID:    "Agent1",
		TokensUsed: 10000,
		// TasksFailed: 0 - should not override existing value
	})

	retrieved := c.GetAgentMetrics("Agent1")
	if retrieved.TokensUsed != 10000 {
		t.Errorf("TokensUsed = %d, want 10000", retrieved.TokensUsed)
	}
	// Fields left zero in the second update (TasksFailed, EstimatedCost)
	// keep their earlier values; only non-zero fields overwrite.
}

func TestGetAllMetrics(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TokensUsed: 100})
	c.UpdateAgentMetrics("Agent2", &types.AgentMetrics{TokensUsed: 200})
	c.UpdateAgentMetrics("Agent3", &types.AgentMetrics{TokensUsed: 300})

	all := c.GetAllMetrics()
	if len(all) != 3 {
		t.Errorf("expected 3 agents, got %d", len(all))
	}

	// Verify it's a copy
	all["Agent1"].TokensUsed = 999
	original := c.GetAgentMetrics("Agent1")
	if original.TokensUsed == 999 {
		t.Error("GetAllMetrics should return a copy, not original reference")
	}
}

func TestGetAgentMetricsNotFound(t *testing.T) {
	c := NewCollector()

	retrieved := c.GetAgentMetrics("NonExistent")
	if retrieved != nil {
		t.Error("expected nil for non-existent agent")
	}
}

func TestSetAgentIdle(t *testing.T) {
	c := NewCollector()

	// Set idle for new agent
	c.SetAgentIdle("Agent1")

	m := c.GetAgentMetrics("Agent1")
	if m == nil {
		t.Fatal("SetAgentIdle should create metrics entry")
	}
	if m.IdleSince.IsZero() {
		t.Error("IdleSince should be set")
	}

	// Set idle again - should not change time
	originalIdleTime := m.IdleSince
	time.Sleep(10 * time.Millisecond)
	c.SetAgentIdle("Agent1")

	m = c.GetAgentMetrics("Agent1")
	if !m.IdleSince.Equal(originalIdleTime) {
		t.Error("IdleSince should not change if already idle")
	}
}

func TestSetAgentActive(t *testing.T) {
	c := NewCollector()

	c.SetAgentIdle("Agent1")
	m := c.GetAgentMetrics("Agent1")
	if m.IdleSince.IsZero() {
		t.Fatal("Agent should be idle")
	}

	c.SetAgentActive("Agent1")
	m = c.GetAgentMetrics("Agent1")
	if !m.IdleSince.IsZero() {
		t.Error("IdleSince should be cleared when active")
	}
}

func TestSetAgentActiveNonExistent(t *testing.T) {
	c := NewCollector()
	// Should not panic
	c.SetAgentActive("NonExistent")
}

func TestTakeSnapshot(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TokensUsed: 100})
	c.UpdateAgentMetrics("Agent2", &types.AgentMetrics{TokensUsed: 200})

	snapshot := c.TakeSnapshot()

	if snapshot.Timestamp.IsZero() {
		t.Error("snapshot should have timestamp")
	}
	if len(snapshot.Agents) != 2 {
		t.Errorf("snapshot should have 2 agents, got %d", len(snapshot.Agents))
	}

	history := c.GetHistory()
	if len(history) != 1 {
		t.Errorf("history should have 1 snapshot, got %d", len(history))
	}
}

func TestSnapshotHistoryLimit(t *testing.T) {
	c := NewCollector()
	c.maxHistory = 10 // Lower limit for testing

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TokensUsed: 100})

	// Take more snapshots than limit
	for i := 0; i < 15; i++ {
		c.TakeSnapshot()
	}

	history := c.GetHistory()
	// History should be trimmed to stay at or below maxHistory
	// With maxHistory=10, after 15 snapshots, should have been trimmed
	if len(history) > c.maxHistory {
		t.Errorf("history length %d should not exceed maxHistory %d", len(history), c.maxHistory)
	}
}

func TestResetHistory(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TokensUsed: 100})
	c.TakeSnapshot()
	c.TakeSnapshot()

	if len(c.GetHistory()) == 0 {
		t.Fatal("should have history before reset")
	}

	c.ResetHistory()

	if len(c.GetHistory()) != 0 {
		t.Error("history should be empty after reset")
	}
}

func TestIncrementTaskFailures(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TasksFailed: 2})

	c.IncrementTaskFailures("Agent1")
	m := c.GetAgentMetrics("Agent1")
	if m.TasksFailed != 3 {
		t.Errorf("TasksFailed = %d, want 3", m.TasksFailed)
	}

	// Increment non-existent agent - should not panic
	c.IncrementTaskFailures("NonExistent")
}

func TestIncrementConsecutiveRejects(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{ConsecutiveRejects: 1})

	c.IncrementConsecutiveRejects("Agent1")
	m := c.GetAgentMetrics("Agent1")
	if m.ConsecutiveRejects != 2 {
		t.Errorf("ConsecutiveRejects = %d, want 2", m.ConsecutiveRejects)
	}
}

func TestResetConsecutiveRejects(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{ConsecutiveRejects: 5})

	c.ResetConsecutiveRejects("Agent1")
	m := c.GetAgentMetrics("Agent1")
	if m.ConsecutiveRejects != 0 {
		t.Errorf("ConsecutiveRejects = %d, want 0", m.ConsecutiveRejects)
	}
}

func TestRemoveAgent(t *testing.T) {
	c := NewCollector()

	c.UpdateAgentMetrics("Agent1", &types.AgentMetrics{TokensUsed: 100})

	if c.GetAgentMetrics("Agent1") == nil {
		t.Fatal("agent should exist before removal")
	}

	c.RemoveAgent("Agent1")

	if c.GetAgentMetrics("Agent1") != nil {
		t.Error("agent should not exist after removal")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	// Concurrent updates
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			agentID := "Agent"
			for j := 0; j < 100; j++ {
				c.UpdateAgentMetrics(agentID, &types.AgentMetrics{TokensUsed: int64(j)})
				c.SetAgentIdle(agentID)
				c.SetAgentActive(agentID)
				c.GetAgentMetrics(agentID)
				c.GetAllMetrics()
			}
		}(i)
	}

	wg.Wait()

	// Should not have panicked
	if c.GetAgentMetrics("Agent") == nil {
		t.Error("Agent should exist after concurrent operations")
	}
}
