package agentpool

import (
	"context"

	"github.com/hive-mind/coordinator/internal/bus"
)

// Executor performs the actual work a task_assignment message describes.
// The coordinator supplies the concrete implementation (shelling out to an
// external agent process, calling an LLM, running a plugin); agentpool only
// needs the result/error to report back over the Bus.
type Executor interface {
	Execute(ctx context.Context, payload map[string]interface{}) (result string, err error)
}

// reportTarget is the Bus address the Scheduler listens on for progress and
// terminal task results.
const reportTarget = "scheduler"

// AgentLoop blocks on inbox, running executor against each task_assignment
// message it receives and reporting progress/result back on the Bus as
// progress_update messages the Scheduler treats authoritatively. It
// returns when ctx is cancelled or inbox closes. Grounded on the per-pane
// command loop in spawner.go, generalized from a WezTerm pane process to a
// plain goroutine select loop.
func AgentLoop(ctx context.Context, pool *Pool, agentID string, inbox <-chan bus.Message, executor Executor) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			if msg.Kind == bus.KindTaskAssignment {
				handleTaskAssignment(ctx, pool, agentID, msg, executor)
			}
		}
	}
}

func handleTaskAssignment(ctx context.Context, pool *Pool, agentID string, msg bus.Message, executor Executor) {
	taskID, _ := msg.Payload["task_id"].(string)

	pool.bus.Publish(bus.NewMessage(bus.KindProgressUpdate, agentID, reportTarget, bus.PriorityNormal, map[string]interface{}{
		"task_id":  taskID,
		"progress": 0.0,
		"status":   "in_progress",
	}))

	result, err := executor.Execute(ctx, msg.Payload)

	status := "completed"
	payload := map[string]interface{}{
		"task_id":  taskID,
		"progress": 1.0,
		"result":   result,
	}
	if err != nil {
		status = "failed"
		payload["error"] = err.Error()
	}
	payload["status"] = status

	pool.bus.Publish(bus.NewMessage(bus.KindProgressUpdate, agentID, reportTarget, bus.PriorityNormal, payload))
}
