package scheduler

import (
	"context"
	"time"

	"github.com/hive-mind/coordinator/internal/tasks"
)

// assignSweepInterval is how often Run re-checks every swarm it has seen
// for ready tasks that can now be assigned and idle agents that can now
// steal in-progress work, independent of any single task's completion.
const assignSweepInterval = 2 * time.Second

// Run consumes progress_update messages until ctx is cancelled. Progress is
// advisory; the Scheduler alone transitions assigned->in_progress on the
// first message and in_progress->completed|failed on the terminal one. A
// ticker alongside it re-runs assignment and work-stealing for every swarm
// on a fixed cadence, so readiness unlocked by something other than a
// progress message (a dependency completing, an agent going idle) still
// gets picked up.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(assignSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.progress:
			if !ok {
				return
			}
			s.handleProgress(msg.Payload)
		case <-ticker.C:
			s.sweepAllSwarms()
		}
	}
}

// sweepAllSwarms runs an assignment and work-steal pass over every swarm
// the Scheduler has ever queued a task for.
func (s *Scheduler) sweepAllSwarms() {
	s.mu.Lock()
	swarmIDs := make([]string, 0, len(s.queues))
	for id := range s.queues {
		swarmIDs = append(swarmIDs, id)
	}
	s.mu.Unlock()

	for _, id := range swarmIDs {
		s.TryAssign(id)
		s.WorkSteal(id)
	}
}

func (s *Scheduler) handleProgress(payload map[string]interface{}) {
	taskID, _ := payload["task_id"].(string)
	if taskID == "" {
		return
	}
	status, _ := payload["status"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.GetTask(taskID)
	if err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Warn("progress for unknown task")
		return
	}

	switch status {
	case "in_progress":
		s.advance(t, tasks.StatusInProgress)
	case "completed":
		result, _ := payload["result"].(string)
		t.Result = result
		s.finish(t, tasks.StatusCompleted)
	case "failed":
		errMsg, _ := payload["error"].(string)
		t.Error = errMsg
		s.finish(t, tasks.StatusFailed)
	}
}

// advance applies a non-terminal status transition and persists it.
// Regressing progress (a message for a task already past this state) is
// silently ignored, per the numeric-semantics rule that stale progress
// reports do not move the task backwards.
func (s *Scheduler) advance(t *tasks.Task, newStatus tasks.Status) {
	if t.Status != tasks.StatusAssigned {
		return
	}
	if err := t.TransitionTo(newStatus); err != nil {
		s.log.WithError(err).WithField("task_id", t.ID).Warn("ignoring invalid progress transition")
		return
	}
	if err := s.store.PutTask(t); err != nil {
		s.log.WithError(err).WithField("task_id", t.ID).Warn("persist in_progress transition")
		return
	}
	s.queueFor(t.SwarmID).Update(t)
}

func (s *Scheduler) finish(t *tasks.Task, newStatus tasks.Status) {
	if t.IsTerminal() || t.Status == newStatus {
		return
	}
	if err := t.TransitionTo(newStatus); err != nil {
		s.log.WithError(err).WithField("task_id", t.ID).Warn("ignoring invalid terminal transition")
		return
	}
	now := time.Now()
	t.CompletedAt = &now
	if err := s.store.PutTask(t); err != nil {
		s.log.WithError(err).WithField("task_id", t.ID).Warn("persist terminal transition")
		return
	}
	s.queueFor(t.SwarmID).Update(t)
	s.releaseAgent(t, newStatus == tasks.StatusCompleted)

	if newStatus == tasks.StatusFailed {
		s.scheduleRetry(t)
	}

	// A completion just freed an agent and may have satisfied another
	// task's dependency; re-check the swarm's ready queue immediately
	// instead of waiting for the next sweep tick.
	s.tryAssignLocked(t.SwarmID)
}

// releaseAgent returns t's assigned agent to idle and updates its
// completion bookkeeping, used by both success and failure paths since
// agents go idle on task completion regardless of outcome.
func (s *Scheduler) releaseAgent(t *tasks.Task, succeeded bool) {
	if t.AssignedAgentID == "" {
		return
	}
	agent, err := s.pool.MarkIdle(t.AssignedAgentID)
	if err != nil {
		s.log.WithError(err).WithField("agent_id", t.AssignedAgentID).Warn("release agent on task completion")
		return
	}
	if agent.InFlightTasks > 0 {
		agent.InFlightTasks--
	}
	if succeeded {
		agent.TasksCompleted++
		agent.LastCompletedAt = time.Now()
	}
	agent.IdleSince = time.Now()
	if err := s.store.PutAgent(agent); err != nil {
		s.log.WithError(err).WithField("agent_id", agent.ID).Warn("persist agent completion bookkeeping")
	}
}
