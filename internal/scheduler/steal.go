package scheduler

import (
	"time"

	"github.com/hive-mind/coordinator/internal/tasks"
)

// SetStealIdleThreshold overrides the default idle duration an agent must
// sit at before WorkSteal considers it for stealing.
func (s *Scheduler) SetStealIdleThreshold(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stealIdle = d
}

// WorkSteal attaches idle agents that have sat idle past steal_idle_ms to an
// in-progress parallel-strategy task that hasn't reached max_agents yet.
func (s *Scheduler) WorkSteal(swarmID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workStealLocked(swarmID)
}

// workStealLocked is WorkSteal's body; callers must already hold s.mu.
// WorkSteal is its only caller, and the periodic sweep goes through WorkSteal.
func (s *Scheduler) workStealLocked(swarmID string) {
	idleAgents, err := s.pool.IdleCandidates(swarmID, nil)
	if err != nil || len(idleAgents) == 0 {
		return
	}

	all, err := s.store.ListTasks(swarmID)
	if err != nil {
		return
	}
	var stealable []*tasks.Task
	for _, t := range all {
		if t.Status != tasks.StatusInProgress {
			continue
		}
		if t.Strategy != tasks.StrategyParallel || t.MaxAgents <= 1 {
			continue
		}
		if 1+len(t.AssignedAgents) >= t.MaxAgents {
			continue
		}
		stealable = append(stealable, t)
	}
	if len(stealable) == 0 {
		return
	}

	now := time.Now()
	for _, agent := range idleAgents {
		if agent.IdleSince.IsZero() || now.Sub(agent.IdleSince) < s.stealIdle {
			continue
		}
		for _, t := range stealable {
			if 1+len(t.AssignedAgents) >= t.MaxAgents {
				continue
			}
			if !agent.Capabilities.Superset(t.RequiredCapabilities) {
				continue
			}
			t.AssignedAgents = append(t.AssignedAgents, agent.ID)
			if err := s.store.PutTask(t); err != nil {
				s.log.WithError(err).WithField("task_id", t.ID).Warn("persist stolen-work assignment")
				continue
			}
			s.queueFor(swarmID).Update(t)
			if _, err := s.pool.MarkBusy(agent.ID, t.ID); err != nil {
				s.log.WithError(err).WithField("agent_id", agent.ID).Warn("mark stolen-work agent busy")
			}
			break
		}
	}
}
