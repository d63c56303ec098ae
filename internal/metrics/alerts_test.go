package metrics

import (
	"testing"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

func TestNewAlertEngine(t *testing.T) {
	engine := NewAlertEngine(types.DefaultThresholds())
	if engine == nil {
		t.Fatal("NewAlertEngine returned nil")
	}
	if engine.thresholds.TaskFailuresMax != 5 {
		t.Errorf("TaskFailuresMax = %d, want 5", engine.thresholds.TaskFailuresMax)
	}
}

func TestSetGetThresholds(t *testing.T) {
	engine := NewAlertEngine(types.DefaultThresholds())

	newThresholds := types.AlertThresholds{
		TaskFailuresMax:    10,
		IdleTimeMaxSeconds: 1200,
	}
	engine.SetThresholds(newThresholds)

	retrieved := engine.GetThresholds()
	if retrieved.TaskFailuresMax != 10 {
		t.Errorf("TaskFailuresMax = %d, want 10", retrieved.TaskFailuresMax)
	}
}

func TestCheckMetricsTaskFailures(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{TaskFailuresMax: 5})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", TasksFailed: 3}, // below threshold
		"agent2": {AgentID: "agent2", TasksFailed: 5}, // at threshold
		"agent3": {AgentID: "agent3", TasksFailed: 8}, // above threshold
	}

	alerts := engine.CheckMetrics(metrics)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "task_failures" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 task_failures alerts, got %d", count)
	}
}

func TestCheckMetricsIdleTimeout(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{IdleTimeMaxSeconds: 1})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", IdleSince: time.Now().Add(-2 * time.Second)},
		"agent2": {AgentID: "agent2", IdleSince: time.Time{}},
	}

	alerts := engine.CheckMetrics(metrics)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "idle_timeout" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 idle_timeout alert, got %d", count)
	}
}

func TestCheckMetricsTokenUsage(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{TokenUsageMax: 100000})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", TokensUsed: 50000},
		"agent2": {AgentID: "agent2", TokensUsed: 100000},
	}

	alerts := engine.CheckMetrics(metrics)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "token_usage" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 token_usage alert, got %d", count)
	}
}

func TestCheckMetricsConsecutiveRejects(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{ConsecutiveRejectsMax: 3})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", ConsecutiveRejects: 2},
		"agent2": {AgentID: "agent2", ConsecutiveRejects: 3},
	}

	alerts := engine.CheckMetrics(metrics)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "consecutive_rejects" {
			count++
			if alert.Severity != "critical" {
				t.Error("consecutive_rejects alert should be critical")
			}
		}
	}
	if count != 1 {
		t.Errorf("expected 1 consecutive_rejects alert, got %d", count)
	}
}

func TestCheckMetricsNoAlertForZeroThreshold(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{TaskFailuresMax: 0})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", TasksFailed: 100},
	}

	for _, alert := range engine.CheckMetrics(metrics) {
		if alert.Type == "task_failures" {
			t.Error("should not alert when threshold is 0")
		}
	}
}

func TestCheckAgentStatusOffline(t *testing.T) {
	engine := NewAlertEngine(types.DefaultThresholds())

	agents := map[string]*types.Agent{
		"agent1": {ID: "agent1", Status: types.StatusBusy},
		"agent2": {ID: "agent2", Status: types.StatusOffline},
	}

	alerts := engine.CheckAgentStatus(agents)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "agent_offline" {
			count++
			if alert.Severity != "critical" {
				t.Error("agent_offline should be critical")
			}
		}
	}
	if count != 1 {
		t.Errorf("expected 1 agent_offline alert, got %d", count)
	}
}

func TestCheckAgentStatusErrored(t *testing.T) {
	engine := NewAlertEngine(types.DefaultThresholds())

	agents := map[string]*types.Agent{
		"agent1": {ID: "agent1", Status: types.StatusError, CurrentTaskID: "task-1"},
	}

	alerts := engine.CheckAgentStatus(agents)

	count := 0
	for _, alert := range alerts {
		if alert.Type == "agent_errored" {
			count++
			if alert.Severity != "warning" {
				t.Error("agent_errored should be warning")
			}
		}
	}
	if count != 1 {
		t.Errorf("expected 1 agent_errored alert, got %d", count)
	}
}

func TestCheckQueueBacklog(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{QueueBacklogMax: 5})

	if alert := engine.CheckQueueBacklog("swarm1", 3); alert != nil {
		t.Error("should not alert below threshold")
	}

	alert := engine.CheckQueueBacklog("swarm1", 5)
	if alert == nil {
		t.Fatal("expected queue_backlog alert")
	}
	if alert.Type != "queue_backlog" {
		t.Errorf("alert.Type = %q, want %q", alert.Type, "queue_backlog")
	}
	if alert.Severity != "critical" {
		t.Error("queue_backlog should be critical")
	}
}

func TestCheckQueueBacklogDisabled(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{QueueBacklogMax: 0})

	if alert := engine.CheckQueueBacklog("swarm1", 1000); alert != nil {
		t.Error("should not alert when threshold is 0")
	}
}

func TestAlertDeduplication(t *testing.T) {
	engine := NewAlertEngine(types.AlertThresholds{TaskFailuresMax: 5})

	metrics := map[string]*types.AgentMetrics{
		"agent1": {AgentID: "agent1", TasksFailed: 10},
	}

	if len(engine.CheckMetrics(metrics)) == 0 {
		t.Fatal("expected alert on first check")
	}
	if len(engine.CheckMetrics(metrics)) != 0 {
		t.Error("should not produce duplicate alert within 5 minutes")
	}
}

func TestAlertHasUniqueID(t *testing.T) {
	engine := NewAlertEngine(types.DefaultThresholds())

	agents := map[string]*types.Agent{
		"agent1": {ID: "agent1", Status: types.StatusOffline},
		"agent2": {ID: "agent2", Status: types.StatusOffline},
	}

	alerts := engine.CheckAgentStatus(agents)
	if len(alerts) < 2 {
		t.Skip("not enough alerts to test uniqueness")
	}

	ids := make(map[string]bool)
	for _, alert := range alerts {
		if ids[alert.ID] {
			t.Error("alert IDs should be unique")
		}
		ids[alert.ID] = true
	}
}
