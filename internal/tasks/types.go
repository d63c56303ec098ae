// internal/tasks/types.go
package tasks

import (
	"fmt"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// validTransitions enumerates the permitted task status edges.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusPending, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusPending, StatusCancelled},
	StatusCompleted:  {},
	StatusFailed:     {StatusPending, StatusCancelled},
	StatusCancelled:  {},
}

// Strategy controls how many agents a task is handed to.
type Strategy string

const (
	// StrategySingle assigns exactly one agent; the common case.
	StrategySingle Strategy = "single"
	// StrategyParallel lets idle-agent work stealing attach up to MaxAgents
	// additional agents to the same task.
	StrategyParallel Strategy = "parallel"
	// StrategyConsensus routes completion through a consensus proposal
	// rather than a single agent's result; the scheduler does not retry or
	// steal work for these tasks.
	StrategyConsensus Strategy = "consensus"
)

// Task is a unit of work submitted to the coordinator.
type Task struct {
	ID                   string              `json:"id"`
	SwarmID              string              `json:"swarm_id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Priority             int                 `json:"priority"` // higher runs first
	Status               Status              `json:"status"`
	RequiredCapabilities types.CapabilitySet `json:"required_capabilities"`
	DependsOn            []string            `json:"depends_on,omitempty"`
	AssignedAgentID      string              `json:"assigned_agent_id,omitempty"`
	Strategy             Strategy            `json:"strategy,omitempty"`
	MaxAgents            int                 `json:"max_agents,omitempty"`
	AssignedAgents       []string            `json:"assigned_agents,omitempty"`
	RetryCount           int                 `json:"retry_count"`
	MaxRetries           int                 `json:"max_retries"`
	Result               string              `json:"result,omitempty"`
	Error                string              `json:"error,omitempty"`
	Metadata             map[string]string   `json:"metadata,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	StartedAt            *time.Time          `json:"started_at,omitempty"`
	CompletedAt          *time.Time          `json:"completed_at,omitempty"`
}

// NewTask creates a pending task with the given id.
func NewTask(id, swarmID, title, description string, priority int, caps types.CapabilitySet, dependsOn []string) *Task {
	now := time.Now()
	return &Task{
		ID:                   id,
		SwarmID:              swarmID,
		Title:                title,
		Description:          description,
		Priority:             priority,
		Status:               StatusPending,
		RequiredCapabilities: caps,
		DependsOn:            dependsOn,
		Strategy:             StrategySingle,
		MaxAgents:            1,
		MaxRetries:           3,
		Metadata:             make(map[string]string),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Validate checks field invariants independent of the queue or scheduler.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Priority < 0 {
		return fmt.Errorf("priority must be non-negative")
	}
	return nil
}

// TransitionTo attempts to move the task to a new status.
func (t *Task) TransitionTo(newStatus Status) error {
	if newStatus == t.Status {
		return nil
	}
	allowed, ok := validTransitions[t.Status]
	if !ok {
		return fmt.Errorf("unknown current status: %s", t.Status)
	}
	for _, s := range allowed {
		if s == newStatus {
			t.Status = newStatus
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("invalid task transition from %s to %s", t.Status, newStatus)
}

// IsTerminal reports whether the task will never change status again.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

// CanRetry reports whether a failed task is still within its retry budget.
func (t *Task) CanRetry() bool {
	return t.Status == StatusFailed && t.RetryCount < t.MaxRetries
}
