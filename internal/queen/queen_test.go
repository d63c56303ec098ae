package queen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-mind/coordinator/internal/agentpool"
	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/scheduler"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

type echoExecutor struct{}

func (echoExecutor) Execute(ctx context.Context, payload map[string]interface{}) (string, error) {
	return "ok", nil
}

func newTestQueen(t *testing.T) (*Queen, store.Store) {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	b := bus.New()
	bundles := types.DefaultCapabilityBundles()
	pool := agentpool.New(st, b, bundles, nil)
	sched := scheduler.New(st, b, pool, bundles, nil)
	q := New(st, b, pool, sched, func(types.AgentType) agentpool.Executor { return echoExecutor{} }, nil)
	return q, st
}

func TestChooseTopology(t *testing.T) {
	cases := map[string]types.SwarmTopology{
		"Research the competitive landscape": types.TopologyMesh,
		"Build a new dashboard":              types.TopologyHierarchical,
		"Monitor production health":          types.TopologyRing,
		"Coordinate the release":             types.TopologyStar,
		"Something unrelated entirely":       types.TopologyHierarchical,
	}
	for objective, want := range cases {
		assert.Equal(t, want, ChooseTopology(objective), objective)
	}
}

func TestBootstrap_SpawnsQueenAndWorkerMix(t *testing.T) {
	q, st := newTestQueen(t)
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 4, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	queenAgent, err := q.Bootstrap(context.Background(), "swarm-1", 4)
	require.NoError(t, err)
	assert.Equal(t, types.RoleQueen, queenAgent.Role)

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	assert.Len(t, agents, 1+len(DefaultWorkerMix))
}

func TestBootstrap_RespectsMaxWorkers(t *testing.T) {
	q, st := newTestQueen(t)
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 2, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	_, err := q.Bootstrap(context.Background(), "swarm-1", 2)
	require.NoError(t, err)

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	assert.Len(t, agents, 1+2) // queen + 2 workers
}

func TestAutoScale_ScalesUpOnQueuePressure(t *testing.T) {
	q, st := newTestQueen(t)
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 8, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	_, err := q.pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		task := tasks.NewTask("", "swarm-1", "task", "implement a new feature", 5, types.NewCapabilitySet("code-generation"), nil)
		require.NoError(t, st.PutTask(task))
	}

	q.AutoScale(context.Background(), "swarm-1")

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	assert.Len(t, agents, 2, "should have spawned one additional worker")
}

func TestAutoScale_ScalesDownOnIdleSurplus(t *testing.T) {
	q, st := newTestQueen(t)
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 8, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	for i := 0; i < 3; i++ {
		_, err := q.pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
		require.NoError(t, err)
	}

	q.AutoScale(context.Background(), "swarm-1")

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	offline := 0
	for _, a := range agents {
		if a.Status == types.StatusOffline {
			offline++
		}
	}
	assert.Equal(t, 1, offline, "should have retired exactly the LRU idle worker")
}

func TestRecoverErroredAgents_ReplacesWithinBudget(t *testing.T) {
	q, st := newTestQueen(t)
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 8, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	agent, err := q.pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
	require.NoError(t, err)
	_, err = q.pool.MarkBusy(agent.ID, "t1")
	require.NoError(t, err)
	_, err = q.pool.MarkError(agent.ID)
	require.NoError(t, err)

	q.RecoverErroredAgents(context.Background(), "swarm-1")

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	assert.Len(t, agents, 2, "errored agent retired, one replacement spawned")

	var replacement *types.Agent
	for _, a := range agents {
		if a.ID != agent.ID {
			replacement = a
		}
	}
	require.NotNil(t, replacement)
	assert.Equal(t, types.TypeCoder, replacement.Type)
	assert.Equal(t, types.StatusIdle, replacement.Status)
}

func TestRecoverErroredAgents_StopsReplacingPastBudget(t *testing.T) {
	q, st := newTestQueen(t)
	q.SetRestartBudget(RestartBudget{Max: 1, Window: time.Hour})
	require.NoError(t, st.PutSwarm(&types.Swarm{ID: "swarm-1", MaxWorkers: 8, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	for i := 0; i < 2; i++ {
		agent, err := q.pool.Spawn(context.Background(), "swarm-1", types.TypeCoder, echoExecutor{})
		require.NoError(t, err)
		_, err = q.pool.MarkBusy(agent.ID, "t1")
		require.NoError(t, err)
		_, err = q.pool.MarkError(agent.ID)
		require.NoError(t, err)
		q.RecoverErroredAgents(context.Background(), "swarm-1")
	}

	agents, err := st.ListAgents("swarm-1")
	require.NoError(t, err)
	idleOrBusy := 0
	for _, a := range agents {
		if a.Status != types.StatusOffline {
			idleOrBusy++
		}
	}
	assert.Equal(t, 1, idleOrBusy, "second recovery should have hit the restart budget")
}
