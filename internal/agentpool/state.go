package agentpool

import (
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/types"
)

// transition loads agent, applies the state-machine edge, and persists it.
func (p *Pool) transition(agentID string, newStatus types.AgentStatus, taskID string) (*types.Agent, error) {
	agent, err := p.store.GetAgent(agentID)
	if err != nil {
		return nil, err
	}
	if err := agent.TransitionTo(newStatus); err != nil {
		return nil, hiveerr.Wrap(hiveerr.InvalidRequest, "agent state transition", err)
	}
	if newStatus == types.StatusBusy {
		agent.CurrentTaskID = taskID
	}
	if !agent.Invariant() {
		return nil, hiveerr.New(hiveerr.InternalInvariant, "agent status/current-task invariant violated")
	}
	if err := p.store.PutAgent(agent); err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "persist agent transition", err)
	}
	return agent, nil
}

// MarkBusy transitions agentID to busy with taskID as its current task. The
// Scheduler calls this as part of its single assignment transaction
// (store.AssignTask already updates the row; this keeps the Pool's
// in-memory view and invariant checks consistent for callers that read
// through the Pool rather than the Store directly).
func (p *Pool) MarkBusy(agentID, taskID string) (*types.Agent, error) {
	agent, err := p.store.GetAgent(agentID)
	if err != nil {
		return nil, err
	}
	if agent.Status == types.StatusBusy && agent.CurrentTaskID != taskID {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "agent "+agentID+" is already assigned to task "+agent.CurrentTaskID)
	}
	return p.transition(agentID, types.StatusBusy, taskID)
}

// MarkIdle transitions agentID back to idle on task completion, success or
// failure alike.
func (p *Pool) MarkIdle(agentID string) (*types.Agent, error) {
	return p.transition(agentID, types.StatusIdle, "")
}

// MarkError transitions agentID to error, the entry point for the Queen's
// recovery path.
func (p *Pool) MarkError(agentID string) (*types.Agent, error) {
	return p.transition(agentID, types.StatusError, "")
}
