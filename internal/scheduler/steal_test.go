package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

func TestWorkSteal_AttachesLongIdleAgentToParallelTask(t *testing.T) {
	s, pool, st := newTestScheduler(t)
	s.SetStealIdleThreshold(10 * time.Millisecond)

	busyAgent, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)
	idleAgent, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	task := tasks.NewTask("t1", "swarm-1", "Implement", "implement code-generation", 5, types.NewCapabilitySet("code-generation"), nil)
	task.Strategy = tasks.StrategyParallel
	task.MaxAgents = 2
	require.NoError(t, st.PutTask(task))
	_, err = pool.MarkBusy(busyAgent.ID, "t1")
	require.NoError(t, err)
	task.Status = tasks.StatusInProgress
	task.AssignedAgentID = busyAgent.ID
	require.NoError(t, st.PutTask(task))

	time.Sleep(20 * time.Millisecond)
	s.WorkSteal("swarm-1")

	stored, err := st.GetTask("t1")
	require.NoError(t, err)
	assert.Contains(t, stored.AssignedAgents, idleAgent.ID)

	storedIdle, err := st.GetAgent(idleAgent.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusBusy, storedIdle.Status)
}

func TestWorkSteal_IgnoresSingleStrategyTasks(t *testing.T) {
	s, pool, st := newTestScheduler(t)
	s.SetStealIdleThreshold(10 * time.Millisecond)

	busyAgent, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)
	_, err = pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	task := tasks.NewTask("t1", "swarm-1", "Implement", "implement code-generation", 5, types.NewCapabilitySet("code-generation"), nil)
	require.NoError(t, st.PutTask(task))
	_, err = pool.MarkBusy(busyAgent.ID, "t1")
	require.NoError(t, err)
	task.Status = tasks.StatusInProgress
	task.AssignedAgentID = busyAgent.ID
	require.NoError(t, st.PutTask(task))

	time.Sleep(20 * time.Millisecond)
	s.WorkSteal("swarm-1")

	stored, err := st.GetTask("t1")
	require.NoError(t, err)
	assert.Empty(t, stored.AssignedAgents)
}
