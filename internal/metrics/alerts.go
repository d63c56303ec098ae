package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hive-mind/coordinator/internal/types"
)

// AlertEngine checks metrics and agent state against thresholds and
// generates alerts.
type AlertEngine interface {
	SetThresholds(thresholds types.AlertThresholds)
	GetThresholds() types.AlertThresholds
	CheckMetrics(metrics map[string]*types.AgentMetrics) []*types.Alert
	CheckAgentStatus(agents map[string]*types.Agent) []*types.Alert
	CheckQueueBacklog(swarmID string, depth int) *types.Alert
}

// AlertChecker implements AlertEngine.
type AlertChecker struct {
	mu           sync.RWMutex
	thresholds   types.AlertThresholds
	recentAlerts map[string]time.Time
}

// NewAlertEngine creates a new alert engine.
func NewAlertEngine(thresholds types.AlertThresholds) *AlertChecker {
	return &AlertChecker{
		thresholds:   thresholds,
		recentAlerts: make(map[string]time.Time),
	}
}

// SetThresholds updates the alert thresholds.
func (a *AlertChecker) SetThresholds(thresholds types.AlertThresholds) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.thresholds = thresholds
}

// GetThresholds returns the current thresholds.
func (a *AlertChecker) GetThresholds() types.AlertThresholds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.thresholds
}

// shouldAlert reports whether key hasn't fired in the last 5 minutes,
// deduplicating repeated breaches of the same condition.
func (a *AlertChecker) shouldAlert(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	for k, t := range a.recentAlerts {
		if now.Sub(t) > 5*time.Minute {
			delete(a.recentAlerts, k)
		}
	}
	if _, exists := a.recentAlerts[key]; exists {
		return false
	}
	a.recentAlerts[key] = now
	return true
}

// CheckMetrics examines every agent's metrics and returns any new alerts.
func (a *AlertChecker) CheckMetrics(metrics map[string]*types.AgentMetrics) []*types.Alert {
	a.mu.RLock()
	thresholds := a.thresholds
	a.mu.RUnlock()

	var alerts []*types.Alert

	for agentID, m := range metrics {
		if thresholds.TaskFailuresMax > 0 && m.TasksFailed >= thresholds.TaskFailuresMax {
			if key := fmt.Sprintf("task_failures_%s", agentID); a.shouldAlert(key) {
				alerts = append(alerts, &types.Alert{
					ID:        uuid.New().String(),
					Type:      "task_failures",
					AgentID:   agentID,
					Message:   fmt.Sprintf("agent %s has %d failed tasks (threshold: %d)", agentID, m.TasksFailed, thresholds.TaskFailuresMax),
					Severity:  "warning",
					CreatedAt: time.Now(),
				})
			}
		}

		if thresholds.IdleTimeMaxSeconds > 0 && !m.IdleSince.IsZero() {
			idleSeconds := int(time.Since(m.IdleSince).Seconds())
			if idleSeconds >= thresholds.IdleTimeMaxSeconds {
				if key := fmt.Sprintf("idle_%s", agentID); a.shouldAlert(key) {
					alerts = append(alerts, &types.Alert{
						ID:        uuid.New().String(),
						Type:      "idle_timeout",
						AgentID:   agentID,
						Message:   fmt.Sprintf("agent %s has been idle for %ds", agentID, idleSeconds),
						Severity:  "warning",
						CreatedAt: time.Now(),
					})
				}
			}
		}

		if thresholds.TokenUsageMax > 0 && m.TokensUsed >= thresholds.TokenUsageMax {
			if key := fmt.Sprintf("tokens_%s", agentID); a.shouldAlert(key) {
				alerts = append(alerts, &types.Alert{
					ID:        uuid.New().String(),
					Type:      "token_usage",
					AgentID:   agentID,
					Message:   fmt.Sprintf("agent %s has used %d tokens (threshold: %d)", agentID, m.TokensUsed, thresholds.TokenUsageMax),
					Severity:  "warning",
					CreatedAt: time.Now(),
				})
			}
		}

		if thresholds.ConsecutiveRejectsMax > 0 && m.ConsecutiveRejects >= thresholds.ConsecutiveRejectsMax {
			if key := fmt.Sprintf("rejects_%s", agentID); a.shouldAlert(key) {
				alerts = append(alerts, &types.Alert{
					ID:        uuid.New().String(),
					Type:      "consecutive_rejects",
					AgentID:   agentID,
					Message:   fmt.Sprintf("agent %s has %d consecutive rejections", agentID, m.ConsecutiveRejects),
					Severity:  "critical",
					CreatedAt: time.Now(),
				})
			}
		}
	}

	return alerts
}

// CheckAgentStatus checks for agents in a degraded state.
func (a *AlertChecker) CheckAgentStatus(agents map[string]*types.Agent) []*types.Alert {
	var alerts []*types.Alert

	for agentID, agent := range agents {
		if agent.Status == types.StatusOffline {
			if key := fmt.Sprintf("offline_%s", agentID); a.shouldAlert(key) {
				alerts = append(alerts, &types.Alert{
					ID:        uuid.New().String(),
					Type:      "agent_offline",
					SwarmID:   agent.SwarmID,
					AgentID:   agentID,
					Message:   fmt.Sprintf("agent %s has gone offline", agentID),
					Severity:  "critical",
					CreatedAt: time.Now(),
				})
			}
		}

		if agent.Status == types.StatusError {
			if key := fmt.Sprintf("errored_%s", agentID); a.shouldAlert(key) {
				alerts = append(alerts, &types.Alert{
					ID:        uuid.New().String(),
					Type:      "agent_errored",
					SwarmID:   agent.SwarmID,
					AgentID:   agentID,
					Message:   fmt.Sprintf("agent %s is in an error state (current task: %s)", agentID, agent.CurrentTaskID),
					Severity:  "warning",
					CreatedAt: time.Now(),
				})
			}
		}
	}

	return alerts
}

// CheckQueueBacklog checks a swarm's pending-task depth against
// QueueBacklogMax, the generalized form of the escalation-queue check.
func (a *AlertChecker) CheckQueueBacklog(swarmID string, depth int) *types.Alert {
	a.mu.RLock()
	thresholds := a.thresholds
	a.mu.RUnlock()

	if thresholds.QueueBacklogMax <= 0 || depth < thresholds.QueueBacklogMax {
		return nil
	}

	key := fmt.Sprintf("queue_backlog_%s", swarmID)
	if !a.shouldAlert(key) {
		return nil
	}
	return &types.Alert{
		ID:        uuid.New().String(),
		Type:      "queue_backlog",
		SwarmID:   swarmID,
		Message:   fmt.Sprintf("swarm %s has %d pending tasks (threshold: %d)", swarmID, depth, thresholds.QueueBacklogMax),
		Severity:  "critical",
		CreatedAt: time.Now(),
	}
}
