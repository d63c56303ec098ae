package coordinator

import (
	"time"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// defaultDrainWindow bounds how long Shutdown waits for in-flight tasks to
// reach a terminal state before forcing cancellation.
const defaultDrainWindow = 10 * time.Second

// Shutdown drains every active swarm's tasks (cancelling in-flight work
// past the drain window), persists final swarm state, stops every
// swarm's Queen cycle, and releases the Coordinator's root context so
// every suspension point downstream unblocks.
func (c *Coordinator) Shutdown(drainWindow time.Duration) error {
	if drainWindow <= 0 {
		drainWindow = defaultDrainWindow
	}

	c.mu.Lock()
	swarmIDs := make([]string, 0, len(c.swarms))
	for id := range c.swarms {
		swarmIDs = append(swarmIDs, id)
	}
	c.mu.Unlock()

	var firstErr error
	for _, swarmID := range swarmIDs {
		if err := c.drainSwarm(swarmID, drainWindow); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.mu.Lock()
	for id, rt := range c.swarms {
		rt.cancel()
		delete(c.swarms, id)
	}
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	if c.natsMirror != nil {
		c.natsMirror.Close()
		c.natsMirror = nil
	}
	c.mu.Unlock()

	c.cancelRoot()
	return firstErr
}

func (c *Coordinator) drainSwarm(swarmID string, drainWindow time.Duration) error {
	taskList, err := c.store.ListTasks(swarmID)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "list tasks for shutdown drain", err)
	}
	for _, t := range taskList {
		if t.Status == tasks.StatusPending || t.Status == tasks.StatusAssigned || t.Status == tasks.StatusInProgress {
			if err := c.scheduler.Cancel(t.ID, drainWindow); err != nil {
				c.log.WithError(err).WithField("task_id", t.ID).Warn("shutdown: cancel task")
			}
		}
	}

	swarm, err := c.store.GetSwarm(swarmID)
	if err != nil {
		return hiveerr.Wrap(hiveerr.UnknownEntity, "load swarm for shutdown", err)
	}
	swarm.Status = types.SwarmTerminated
	swarm.UpdatedAt = time.Now()
	if err := c.store.PutSwarm(swarm); err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "persist terminated swarm", err)
	}
	c.emit(SystemEvent{Type: "swarm_shutdown", Source: swarmID, Payload: map[string]interface{}{"swarm_id": swarmID}})
	return nil
}
