package queen

import (
	"context"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// RecoverErroredAgents retires every agent in swarmID sitting in the error
// state and spawns a same-type replacement, capped by the restart budget
// per rolling window.
func (q *Queen) RecoverErroredAgents(ctx context.Context, swarmID string) {
	agents, err := q.store.ListAgents(swarmID)
	if err != nil {
		q.log.WithError(err).WithField("swarm_id", swarmID).Warn("recover: list agents")
		return
	}

	for _, a := range agents {
		if a.Status != types.StatusError {
			continue
		}
		if err := q.pool.Retire(a.ID); err != nil {
			q.log.WithError(err).WithField("agent_id", a.ID).Warn("recover: retire errored agent")
			continue
		}
		if !q.withinRestartBudget(a.Type) {
			q.log.WithField("agent_type", a.Type).Warn("recover: restart budget exhausted, not replacing")
			continue
		}
		if _, err := q.pool.Spawn(ctx, swarmID, a.Type, q.executorFor(a.Type)); err != nil {
			q.log.WithError(err).WithField("agent_type", a.Type).Warn("recover: replacement spawn failed")
			continue
		}
		q.recordRestart(a.Type)
	}
}

func (q *Queen) withinRestartBudget(agentType types.AgentType) bool {
	cutoff := time.Now().Add(-q.budget.Window)
	history := q.restarts[agentType]
	count := 0
	for _, t := range history {
		if t.After(cutoff) {
			count++
		}
	}
	return count < q.budget.Max
}

func (q *Queen) recordRestart(agentType types.AgentType) {
	cutoff := time.Now().Add(-q.budget.Window)
	kept := q.restarts[agentType][:0]
	for _, t := range q.restarts[agentType] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	q.restarts[agentType] = append(kept, time.Now())
}
