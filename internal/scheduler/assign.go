package scheduler

import (
	"strings"

	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// TryAssign scans swarmID's pending tasks in priority order and assigns
// every ready one it can to an idle, capable agent. Safe to call
// opportunistically after submission, completion, or on a timer.
func (s *Scheduler) TryAssign(swarmID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tryAssignLocked(swarmID)
}

// tryAssignLocked is TryAssign's body, split out so callers that already
// hold s.mu (handleProgress, on a task reaching a terminal state) can
// trigger a re-assignment pass without deadlocking on a re-entrant lock.
func (s *Scheduler) tryAssignLocked(swarmID string) {
	all, err := s.store.ListTasks(swarmID)
	if err != nil {
		s.log.WithError(err).Warn("list tasks for assignment pass")
		return
	}
	byID := make(map[string]*tasks.Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	q := s.queueFor(swarmID)
	for _, t := range q.GetByStatus(tasks.StatusPending) {
		if !isReady(t, byID) {
			continue
		}
		candidates, err := s.pool.IdleCandidates(swarmID, t.RequiredCapabilities)
		if err != nil || len(candidates) == 0 {
			continue
		}
		agent := s.selectAgent(candidates, t)
		if err := s.assign(t, agent); err != nil {
			s.log.WithError(err).WithField("task_id", t.ID).Warn("assignment aborted, task stays ready")
			continue
		}
		q.Update(t)
	}
}

// isReady reports whether every dependency of t is completed, or failed
// under an on_failure=skip policy.
func isReady(t *tasks.Task, byID map[string]*tasks.Task) bool {
	for _, dep := range t.DependsOn {
		d, ok := byID[dep]
		if !ok {
			return false
		}
		switch d.Status {
		case tasks.StatusCompleted:
			continue
		case tasks.StatusFailed:
			if d.Metadata["on_failure"] == "skip" {
				continue
			}
			return false
		default:
			return false
		}
	}
	return true
}

// selectAgent breaks ties by highest keyword-match score, then fewest
// in-flight assignments, then most recent completion.
func (s *Scheduler) selectAgent(candidates []*types.Agent, t *tasks.Task) *types.Agent {
	best := candidates[0]
	bestScore := s.keywordScore(best.Type, t.Description)
	for _, c := range candidates[1:] {
		score := s.keywordScore(c.Type, t.Description)
		if betterCandidate(score, c, bestScore, best) {
			best, bestScore = c, score
		}
	}
	return best
}

func betterCandidate(score int, c *types.Agent, bestScore int, best *types.Agent) bool {
	if score != bestScore {
		return score > bestScore
	}
	if c.InFlightTasks != best.InFlightTasks {
		return c.InFlightTasks < best.InFlightTasks
	}
	return c.LastCompletedAt.After(best.LastCompletedAt)
}

func (s *Scheduler) keywordScore(agentType types.AgentType, description string) int {
	desc := strings.ToLower(description)
	score := 0
	for _, kw := range types.DefaultKeywordTable()[agentType] {
		if strings.Contains(desc, kw) {
			score++
		}
	}
	return score
}

// assign runs the single assignment transaction: task -> assigned, agent ->
// busy, task_assignment message on the Bus. A Store failure reverts the
// task to pending in place.
func (s *Scheduler) assign(t *tasks.Task, agent *types.Agent) error {
	prevStatus, prevAssignee, prevUpdatedAt := t.Status, t.AssignedAgentID, t.UpdatedAt
	if err := t.TransitionTo(tasks.StatusAssigned); err != nil {
		return err
	}
	t.AssignedAgentID = agent.ID

	agentCopy := *agent
	agentCopy.Status = types.StatusBusy
	agentCopy.CurrentTaskID = t.ID
	agentCopy.InFlightTasks++

	if err := s.store.AssignTask(t, &agentCopy); err != nil {
		t.Status = prevStatus
		t.AssignedAgentID = prevAssignee
		t.UpdatedAt = prevUpdatedAt
		return err
	}

	if _, err := s.pool.MarkBusy(agent.ID, t.ID); err != nil {
		s.log.WithError(err).WithField("agent_id", agent.ID).Warn("pool state out of sync after assignment")
	}

	payload := map[string]interface{}{
		"task_id":     t.ID,
		"title":       t.Title,
		"description": t.Description,
		"swarm_id":    t.SwarmID,
	}
	s.bus.Publish(bus.NewMessage(bus.KindTaskAssignment, "scheduler", agent.ID, busPriorityFor(t.Priority), payload))
	return nil
}

func busPriorityFor(taskPriority int) int {
	switch {
	case taskPriority >= PriorityCritical:
		return bus.PriorityCritical
	case taskPriority >= PriorityHigh:
		return bus.PriorityHigh
	case taskPriority >= PriorityNormal:
		return bus.PriorityNormal
	default:
		return bus.PriorityLow
	}
}
