package coordinator

import (
	"context"
	"time"

	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/metrics"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// alertSweepInterval governs how often the Coordinator checks accumulated
// agent metrics and queue depth against alert thresholds.
const alertSweepInterval = 30 * time.Second

// watchMetrics taps the same progress_update traffic the Scheduler consumes
// (a second subscriber at the "scheduler" target, since Bus.Subscribe
// appends rather than overwrites) to keep per-agent throughput/health
// counters independent of the Scheduler's own task bookkeeping, and runs a
// periodic sweep against AlertThresholds, mirroring breaches onto the
// SystemEvent stream as "alert_raised".
func (c *Coordinator) watchMetrics(ctx context.Context) {
	ch := c.bus.Subscribe("scheduler", []bus.Kind{bus.KindProgressUpdate})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				c.recordProgress(msg)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(alertSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweepAlerts()
			}
		}
	}()
}

func (c *Coordinator) recordProgress(msg bus.Message) {
	agentID := msg.From
	if agentID == "" {
		return
	}
	status, _ := msg.Payload["status"].(string)

	switch status {
	case "in_progress":
		c.metricsCollector.SetAgentActive(agentID)
	case "completed":
		existing := c.metricsCollector.GetAgentMetrics(agentID)
		completed := int64(1)
		if existing != nil {
			completed = existing.TasksCompleted + 1
		}
		c.metricsCollector.UpdateAgentMetrics(agentID, &types.AgentMetrics{
			AgentID:        agentID,
			TasksCompleted: completed,
		})
		c.metricsCollector.ResetConsecutiveRejects(agentID)
		c.metricsCollector.SetAgentIdle(agentID)
	case "failed":
		c.metricsCollector.IncrementTaskFailures(agentID)
		c.metricsCollector.SetAgentIdle(agentID)
	}
}

// sweepAlerts checks the latest metrics and per-swarm queue depth against
// thresholds and emits any new alerts onto the SystemEvent stream.
func (c *Coordinator) sweepAlerts() {
	all := c.metricsCollector.GetAllMetrics()
	for _, alert := range c.alertEngine.CheckMetrics(all) {
		c.emitAlert(alert)
	}

	swarms, err := c.store.ListSwarms()
	if err != nil {
		c.log.WithError(err).Warn("list swarms for alert sweep")
		return
	}

	for _, swarm := range swarms {
		swarmID := swarm.ID
		agents, err := c.store.ListAgents(swarmID)
		if err != nil {
			continue
		}
		agentMap := make(map[string]*types.Agent, len(agents))
		for _, a := range agents {
			agentMap[a.ID] = a
		}
		for _, alert := range c.alertEngine.CheckAgentStatus(agentMap) {
			c.emitAlert(alert)
		}

		taskList, err := c.store.ListTasks(swarmID)
		if err != nil {
			continue
		}
		pending := 0
		for _, t := range taskList {
			if t.Status == tasks.StatusPending {
				pending++
			}
		}
		if alert := c.alertEngine.CheckQueueBacklog(swarmID, pending); alert != nil {
			c.emitAlert(alert)
		}
	}
}

func (c *Coordinator) emitAlert(alert *types.Alert) {
	c.emit(SystemEvent{
		Type:   "alert_raised",
		Source: alert.AgentID,
		Payload: map[string]interface{}{
			"alert_id": alert.ID,
			"type":     alert.Type,
			"swarm_id": alert.SwarmID,
			"agent_id": alert.AgentID,
			"message":  alert.Message,
			"severity": alert.Severity,
		},
	})
}

// SetAlertThresholds overrides the default alert thresholds, used by
// `hivectl` to apply its loaded configuration's queue_high_watermark and
// related bounds before the swarm starts accepting work.
func (c *Coordinator) SetAlertThresholds(t types.AlertThresholds) {
	c.alertEngine.SetThresholds(t)
}

// MetricsSnapshot returns the current per-agent metrics tracked by the
// Coordinator's metrics collector, exposed by the metrics hivectl verb and
// the HTTP surface's /metrics endpoint.
func (c *Coordinator) MetricsSnapshot() map[string]*types.AgentMetrics {
	return c.metricsCollector.GetAllMetrics()
}

// TeamSummary aggregates swarmID's agent roster and collected metrics into
// a TeamMetrics view (total tasks/tokens/cost, active agent count), the
// rollup form `hivectl metrics` prints alongside the raw per-agent
// breakdown.
func (c *Coordinator) TeamSummary(swarmID string) (*metrics.TeamMetrics, error) {
	agents, err := c.store.ListAgents(swarmID)
	if err != nil {
		return nil, err
	}

	team := metrics.NewTeamMetrics(swarmID)
	for _, a := range agents {
		m := c.metricsCollector.GetAgentMetrics(a.ID)
		ext := &metrics.ExtendedAgentMetrics{
			AgentID:       a.ID,
			AgentType:     string(a.Type),
			CurrentTaskID: a.CurrentTaskID,
		}
		if m != nil {
			ext.TasksCompleted = int(m.TasksCompleted)
			ext.TotalTokens = m.TokensUsed
			ext.TasksFailed = m.TasksFailed
			ext.ConsecutiveFailures = m.ConsecutiveRejects
			ext.LastActivity = m.LastUpdated
		}
		team.AddAgentMetrics(a.ID, ext)
	}
	return team, nil
}

// newMetricsSubsystem constructs the collector/alert-engine pair used by
// watchMetrics, defaulting to types.DefaultThresholds().
func newMetricsSubsystem() (*metrics.MetricsCollector, *metrics.AlertChecker) {
	return metrics.NewCollector(), metrics.NewAlertEngine(types.DefaultThresholds())
}
