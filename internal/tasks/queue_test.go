// internal/tasks/queue_test.go
package tasks

import (
	"testing"

	"github.com/hive-mind/coordinator/internal/types"
)

func mkTask(id string, priority int) *Task {
	return NewTask(id, "swarm-1", id, "", priority, types.NewCapabilitySet(), nil)
}

func TestQueuePriorityOrdering(t *testing.T) {
	q := NewQueue()

	q.Add(mkTask("low", 1))
	q.Add(mkTask("critical", 9))
	q.Add(mkTask("medium", 4))

	task := q.Peek()
	if task.Priority != 9 {
		t.Errorf("expected highest priority 9 first, got %d", task.Priority)
	}
}

func TestQueuePopRemovesTask(t *testing.T) {
	q := NewQueue()
	q.Add(mkTask("t1", 3))
	q.Add(mkTask("t2", 3))

	if q.Len() != 2 {
		t.Errorf("expected 2 tasks, got %d", q.Len())
	}

	q.Pop()

	if q.Len() != 1 {
		t.Errorf("expected 1 task after pop, got %d", q.Len())
	}
}

func TestQueuePopReadySkipsUnready(t *testing.T) {
	q := NewQueue()
	blocked := mkTask("blocked", 9)
	blocked.DependsOn = []string{"missing"}
	ready := mkTask("ready", 1)

	q.Add(blocked)
	q.Add(ready)

	popped := q.PopReady(func(tk *Task) bool {
		return len(tk.DependsOn) == 0
	})

	if popped == nil || popped.ID != "ready" {
		t.Fatalf("expected the ready task to be popped, got %+v", popped)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 task remaining, got %d", q.Len())
	}
}

func TestQueueGetByID(t *testing.T) {
	q := NewQueue()
	task := mkTask("find-me", 3)
	q.Add(task)

	found := q.GetByID(task.ID)
	if found == nil {
		t.Fatal("expected to find task by ID")
	}
	if found.ID != "find-me" {
		t.Errorf("wrong task returned")
	}
}

func TestQueueGetByStatus(t *testing.T) {
	q := NewQueue()
	t1 := mkTask("p1", 3)
	t2 := mkTask("p2", 3)
	t3 := mkTask("a1", 3)
	t3.Status = StatusAssigned

	q.Add(t1)
	q.Add(t2)
	q.Add(t3)

	pending := q.GetByStatus(StatusPending)
	if len(pending) != 2 {
		t.Errorf("expected 2 pending tasks, got %d", len(pending))
	}
}

func TestQueueGetByAgent(t *testing.T) {
	q := NewQueue()
	t1 := mkTask("a1", 3)
	t1.AssignedAgentID = "agent-green"
	t2 := mkTask("a2", 3)
	t2.AssignedAgentID = "agent-purple"

	q.Add(t1)
	q.Add(t2)

	agentTasks := q.GetByAgent("agent-green")
	if len(agentTasks) != 1 {
		t.Errorf("expected 1 task for agent, got %d", len(agentTasks))
	}
}
