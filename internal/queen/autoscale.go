package queen

import (
	"context"
	"strings"

	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// AutoScale scales up one worker of the most in-demand type when
// pending > 2*idle and the pool is below max_workers; it scales down the
// least-recently-used idle worker when idle > pending+2 and the pool is
// above the minimum.
func (q *Queen) AutoScale(ctx context.Context, swarmID string) {
	swarm, err := q.store.GetSwarm(swarmID)
	if err != nil {
		q.log.WithError(err).WithField("swarm_id", swarmID).Warn("auto-scale: load swarm")
		return
	}
	maxWorkers := swarm.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = types.DefaultMaxWorkers
	}

	pending, idle, poolSize, err := q.snapshot(swarmID)
	if err != nil {
		q.log.WithError(err).WithField("swarm_id", swarmID).Warn("auto-scale: snapshot")
		return
	}

	switch {
	case len(pending) > scaleUpSlack*idle && poolSize < maxWorkers:
		q.scaleUp(ctx, swarmID, pending)
	case idle > len(pending)+scaleDownSlack && poolSize > minPoolForScaleDown:
		q.scaleDown(swarmID)
	}
}

func (q *Queen) scaleUp(ctx context.Context, swarmID string, pending []*tasks.Task) {
	agentType := mostInDemandType(pending)
	if _, err := q.pool.Spawn(ctx, swarmID, agentType, q.executorFor(agentType)); err != nil {
		q.log.WithError(err).WithField("agent_type", agentType).Warn("auto-scale up failed")
		return
	}
	q.log.WithField("agent_type", agentType).WithField("swarm_id", swarmID).Info("auto-scaled up")
}

func (q *Queen) scaleDown(swarmID string) {
	agents, err := q.store.ListAgents(swarmID)
	if err != nil {
		q.log.WithError(err).Warn("auto-scale down: list agents")
		return
	}
	var lru *types.Agent
	for _, a := range agents {
		if a.Role != types.RoleWorker || a.Status != types.StatusIdle {
			continue
		}
		if lru == nil || a.IdleSince.Before(lru.IdleSince) {
			lru = a
		}
	}
	if lru == nil {
		return
	}
	if err := q.pool.Retire(lru.ID); err != nil {
		q.log.WithError(err).WithField("agent_id", lru.ID).Warn("auto-scale down retire failed")
		return
	}
	q.log.WithField("agent_id", lru.ID).Info("auto-scaled down")
}

// mostInDemandType scans pending task descriptions against the keyword
// table and returns the type with the most matches, defaulting to coder
// when nothing matches (the most general-purpose bundle).
func mostInDemandType(pending []*tasks.Task) types.AgentType {
	table := types.DefaultKeywordTable()
	counts := make(map[types.AgentType]int, len(table))
	for _, t := range pending {
		desc := strings.ToLower(t.Description)
		for agentType, keywords := range table {
			for _, kw := range keywords {
				if containsAny(desc, kw) {
					counts[agentType]++
					break
				}
			}
		}
	}
	best := types.TypeCoder
	bestCount := -1
	for agentType, c := range counts {
		if c > bestCount {
			best, bestCount = agentType, c
		}
	}
	return best
}
