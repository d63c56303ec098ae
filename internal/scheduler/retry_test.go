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

func TestScheduleRetry_RequeuesFailedTaskWithinBudget(t *testing.T) {
	s, pool, st := newTestScheduler(t)
	_, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	task := tasks.NewTask("t1", "swarm-1", "Implement", "implement code-generation", 5, types.NewCapabilitySet("code-generation"), nil)
	require.NoError(t, s.Submit(task))
	s.TryAssign("swarm-1")

	s.handleProgress(map[string]interface{}{"task_id": "t1", "status": "failed", "error": "boom"})

	stored, err := st.GetTask("t1")
	require.NoError(t, err)
	require.Equal(t, tasks.StatusFailed, stored.Status)

	assert.Eventually(t, func() bool {
		cur, err := st.GetTask("t1")
		return err == nil && cur.Status == tasks.StatusPending && cur.RetryCount == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestScheduleRetry_SkipsExhaustedBudget(t *testing.T) {
	s, pool, st := newTestScheduler(t)
	_, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	task := tasks.NewTask("t1", "swarm-1", "Implement", "implement code-generation", 5, types.NewCapabilitySet("code-generation"), nil)
	task.MaxRetries = 0
	require.NoError(t, s.Submit(task))
	s.TryAssign("swarm-1")

	s.handleProgress(map[string]interface{}{"task_id": "t1", "status": "failed", "error": "boom"})

	time.Sleep(50 * time.Millisecond)
	stored, err := st.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusFailed, stored.Status)
}

func TestScheduleRetry_SkipsConsensusStrategy(t *testing.T) {
	s, pool, st := newTestScheduler(t)
	_, err := pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	task := tasks.NewTask("t1", "swarm-1", "Implement", "implement code-generation", 5, types.NewCapabilitySet("code-generation"), nil)
	task.Strategy = tasks.StrategyConsensus
	require.NoError(t, s.Submit(task))
	s.TryAssign("swarm-1")

	s.handleProgress(map[string]interface{}{"task_id": "t1", "status": "failed", "error": "boom"})

	time.Sleep(50 * time.Millisecond)
	stored, err := st.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusFailed, stored.Status)
}
