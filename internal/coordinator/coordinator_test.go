package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-mind/coordinator/internal/agentpool"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

type echoExecutor struct{}

func (echoExecutor) Execute(ctx context.Context, payload map[string]interface{}) (string, error) {
	return "ok", nil
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	c := New(st, nil)
	t.Cleanup(func() { c.Shutdown(time.Second) })
	return c
}

func TestSubmitObjective_BootstrapsSwarmWithQueenAndWorkers(t *testing.T) {
	c := newTestCoordinator(t)

	swarmID, err := c.SubmitObjective("build a new dashboard", Config{
		Name:       "demo",
		MaxWorkers: 3,
		Executor:   func(types.AgentType) agentpool.Executor { return echoExecutor{} },
	})
	require.NoError(t, err)
	require.NotEmpty(t, swarmID)

	swarm, err := c.store.GetSwarm(swarmID)
	require.NoError(t, err)
	assert.Equal(t, types.SwarmActive, swarm.Status)
	assert.Equal(t, types.TopologyHierarchical, swarm.Topology)

	agents, err := c.store.ListAgents(swarmID)
	require.NoError(t, err)
	assert.True(t, len(agents) >= 2, "expected queen plus at least some workers")
}

func TestSubmitTask_AdmitsAndAttemptsAssignment(t *testing.T) {
	c := newTestCoordinator(t)
	swarmID, err := c.SubmitObjective("implement a feature", Config{
		MaxWorkers: 4,
		Executor:   func(types.AgentType) agentpool.Executor { return echoExecutor{} },
	})
	require.NoError(t, err)

	task := tasks.NewTask("", swarmID, "t", "write code for the feature", 5, types.NewCapabilitySet("code-generation"), nil)
	taskID, err := c.SubmitTask(task)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	assert.Eventually(t, func() bool {
		got, err := c.store.GetTask(taskID)
		return err == nil && got.Status != tasks.StatusPending
	}, time.Second, 10*time.Millisecond)
}

func TestCancelTask_IsIdempotent(t *testing.T) {
	c := newTestCoordinator(t)
	swarmID, err := c.Initialize(Config{Name: "demo"})
	require.NoError(t, err)

	task := tasks.NewTask("", swarmID, "t", "do a thing", 5, nil, nil)
	taskID, err := c.SubmitTask(task)
	require.NoError(t, err)

	require.NoError(t, c.CancelTask(taskID, time.Second))
	require.NoError(t, c.CancelTask(taskID, time.Second))

	got, err := c.store.GetTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCancelled, got.Status)
}

func TestProposeAndVote_ClosesOnFullParticipation(t *testing.T) {
	c := newTestCoordinator(t)
	swarmID, err := c.Initialize(Config{Name: "demo"})
	require.NoError(t, err)

	proposalID, err := c.Propose(swarmID, "choose_db", []string{"sqlite", "postgres"}, types.AlgorithmMajority, time.Now().Add(time.Hour), []string{"v1", "v2"}, "")
	require.NoError(t, err)

	_, err = c.Vote(proposalID, "v1", "sqlite")
	require.NoError(t, err)
	p, err := c.Vote(proposalID, "v2", "sqlite")
	require.NoError(t, err)

	assert.Equal(t, types.ProposalDecided, p.Status)
	assert.Equal(t, "sqlite", p.Decision)
}

func TestStatus_ReportsCountsAcrossSubsystems(t *testing.T) {
	c := newTestCoordinator(t)
	swarmID, err := c.SubmitObjective("research the market", Config{
		MaxWorkers: 2,
		Executor:   func(types.AgentType) agentpool.Executor { return echoExecutor{} },
	})
	require.NoError(t, err)

	snap, err := c.Status(swarmID)
	require.NoError(t, err)
	assert.Equal(t, swarmID, snap.Swarm.ID)
	assert.True(t, len(snap.AgentsByType) > 0)
	assert.True(t, snap.Healthy)
}

func TestSubscribe_ReceivesTaskSubmittedEvent(t *testing.T) {
	c := newTestCoordinator(t)
	swarmID, err := c.Initialize(Config{Name: "demo"})
	require.NoError(t, err)

	events, cancel := c.Subscribe()
	defer cancel()

	task := tasks.NewTask("", swarmID, "t", "do a thing", 5, nil, nil)
	_, err = c.SubmitTask(task)
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Equal(t, "task_submitted", evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task_submitted event")
	}
}

func TestShutdown_TerminatesSwarmsAndClosesSubscribers(t *testing.T) {
	st := store.NewInMemoryStore()
	defer st.Close()
	c := New(st, nil)

	swarmID, err := c.SubmitObjective("build something", Config{
		MaxWorkers: 2,
		Executor:   func(types.AgentType) agentpool.Executor { return echoExecutor{} },
	})
	require.NoError(t, err)

	events, _ := c.Subscribe()

	require.NoError(t, c.Shutdown(time.Second))

	swarm, err := st.GetSwarm(swarmID)
	require.NoError(t, err)
	assert.Equal(t, types.SwarmTerminated, swarm.Status)

	_, open := <-events
	assert.False(t, open, "subscriber channel should be closed on shutdown")
}

func TestEnableNATSMirror_PropagatesConnectError(t *testing.T) {
	c := newTestCoordinator(t)
	err := c.EnableNATSMirror("nats://127.0.0.1:1", "hive")
	assert.Error(t, err, "connecting to an unreachable NATS url should surface an error, not hang or panic")
}
