package scheduler

import (
	"time"

	"github.com/hive-mind/coordinator/internal/tasks"
)

// scheduleRetry re-queues a failed task after an exponential backoff delay,
// unless it has exhausted its retry budget, is a consensus-strategy task,
// or a downstream dependent has been cancelled. Must be called with s.mu
// held; the backoff itself fires on its own timer goroutine, which
// re-acquires the lock.
func (s *Scheduler) scheduleRetry(t *tasks.Task) {
	if !t.CanRetry() {
		return
	}
	if t.Strategy == tasks.StrategyConsensus {
		return
	}
	if s.hasCancelledDependentLocked(t.SwarmID, t.ID) {
		return
	}

	delay := backoffDelay(t.RetryCount)
	taskID := t.ID
	time.AfterFunc(delay, func() {
		s.retryNow(taskID)
	})
}

func backoffDelay(retryCount int) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}

func (s *Scheduler) retryNow(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.GetTask(taskID)
	if err != nil || t.Status != tasks.StatusFailed {
		return
	}
	t.RetryCount++
	if err := t.TransitionTo(tasks.StatusPending); err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Warn("retry transition rejected")
		return
	}
	t.AssignedAgentID = ""
	if err := s.store.PutTask(t); err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Warn("persist retry")
		return
	}
	s.queueFor(t.SwarmID).Update(t)
}

// hasCancelledDependentLocked reports whether any task in swarmID depends
// on taskID and has been cancelled.
func (s *Scheduler) hasCancelledDependentLocked(swarmID, taskID string) bool {
	all, err := s.store.ListTasks(swarmID)
	if err != nil {
		return false
	}
	for _, t := range all {
		if t.Status != tasks.StatusCancelled {
			continue
		}
		for _, dep := range t.DependsOn {
			if dep == taskID {
				return true
			}
		}
	}
	return false
}
