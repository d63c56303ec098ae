package scheduler

import (
	"time"

	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/tasks"
)

// Cancel is idempotent. A pending or assigned task is cancelled immediately
// and its agent (if any) freed. An in-progress task is asked to stop via a
// cancel message and given up to timeout to comply before being marked
// cancelled regardless.
func (s *Scheduler) Cancel(taskID string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = cancelDrainTimeout
	}

	s.mu.Lock()
	t, err := s.store.GetTask(taskID)
	if err != nil {
		s.mu.Unlock()
		return hiveerr.Wrap(hiveerr.UnknownEntity, "cancel unknown task", err)
	}
	if t.IsTerminal() {
		s.mu.Unlock()
		return nil
	}

	switch t.Status {
	case tasks.StatusPending, tasks.StatusAssigned:
		assignee := t.AssignedAgentID
		if err := t.TransitionTo(tasks.StatusCancelled); err != nil {
			s.mu.Unlock()
			return hiveerr.Wrap(hiveerr.InternalInvariant, "cancel transition", err)
		}
		if err := s.store.PutTask(t); err != nil {
			s.mu.Unlock()
			return hiveerr.Wrap(hiveerr.StoreUnavailable, "persist cancellation", err)
		}
		s.queueFor(t.SwarmID).Update(t)
		s.mu.Unlock()
		if assignee != "" {
			if _, err := s.pool.MarkIdle(assignee); err != nil {
				s.log.WithError(err).WithField("agent_id", assignee).Warn("free agent on cancellation")
			}
		}
		return nil

	case tasks.StatusInProgress:
		assignee := t.AssignedAgentID
		s.mu.Unlock()
		if assignee != "" {
			s.bus.Publish(bus.NewMessage(bus.KindCoordination, "scheduler", assignee, bus.PriorityHigh, map[string]interface{}{
				"action":  "cancel",
				"task_id": taskID,
			}))
		}
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
			cur, err := s.store.GetTask(taskID)
			if err == nil && cur.IsTerminal() {
				return nil
			}
		}
		return s.forceCancelled(taskID)
	}
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) forceCancelled(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.GetTask(taskID)
	if err != nil {
		return hiveerr.Wrap(hiveerr.UnknownEntity, "force-cancel unknown task", err)
	}
	if t.IsTerminal() {
		return nil
	}
	assignee := t.AssignedAgentID
	if err := t.TransitionTo(tasks.StatusCancelled); err != nil {
		return hiveerr.Wrap(hiveerr.InternalInvariant, "force-cancel transition", err)
	}
	if err := s.store.PutTask(t); err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "persist force-cancellation", err)
	}
	s.queueFor(t.SwarmID).Update(t)
	if assignee != "" {
		if _, err := s.pool.MarkIdle(assignee); err != nil {
			s.log.WithError(err).WithField("agent_id", assignee).Warn("free agent on force-cancellation")
		}
	}
	return nil
}
