// Package queen implements the swarm's strategy-role agent: topology
// selection from the objective text, initial pool seeding, periodic
// auto-scaling against queue pressure, and error-agent recovery. Grounded
// on internal/router/router.go's ClassifyQuery substring pattern-table
// technique (generalized by types.DefaultKeywordTable, reused here for
// topology and in-demand-type detection) and on internal/captain/captain.go's
// Run/runCycle ticker-driven orchestration loop, generalized from a
// recon-task pipeline to a pool auto-scale/recovery pipeline.
package queen

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/agentpool"
	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/scheduler"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// DefaultWorkerMix seeds a new swarm's pool, subject to max_workers.
var DefaultWorkerMix = []types.AgentType{types.TypeResearcher, types.TypeCoder, types.TypeAnalyst, types.TypeTester}

const (
	defaultCycleInterval = 10 * time.Second
	scaleUpSlack         = 2 // pending > 2*idle triggers scale-up
	scaleDownSlack       = 2 // idle > pending+2 triggers scale-down
	minPoolForScaleDown  = 2
)

// RestartBudget caps how many times the Queen will replace an errored
// agent of the same type within a rolling window.
type RestartBudget struct {
	Max    int
	Window time.Duration
}

// DefaultRestartBudget allows 3 restarts per type per 10 minutes.
var DefaultRestartBudget = RestartBudget{Max: 3, Window: 10 * time.Minute}

// Queen owns one swarm's topology choice, pool seeding, auto-scaling, and
// error recovery.
type Queen struct {
	store     store.Store
	bus       *bus.Bus
	pool      *agentpool.Pool
	scheduler *scheduler.Scheduler
	executors func(types.AgentType) agentpool.Executor
	budget    RestartBudget
	log       *logrus.Entry

	cycleInterval time.Duration
	restarts      map[types.AgentType][]time.Time
}

// New builds a Queen. executorFor supplies the Executor a newly spawned
// agent of a given type should run task assignments with; the Coordinator
// owns what that actually does (shell out, call an LLM, etc).
func New(st store.Store, b *bus.Bus, pool *agentpool.Pool, sched *scheduler.Scheduler, executorFor func(types.AgentType) agentpool.Executor, log *logrus.Entry) *Queen {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Queen{
		store:         st,
		bus:           b,
		pool:          pool,
		scheduler:     sched,
		executors:     executorFor,
		budget:        DefaultRestartBudget,
		log:           log,
		cycleInterval: defaultCycleInterval,
		restarts:      make(map[types.AgentType][]time.Time),
	}
}

// SetCycleInterval overrides the default auto-scale/recovery tick.
func (q *Queen) SetCycleInterval(d time.Duration) {
	q.cycleInterval = d
}

// SetRestartBudget overrides the default restart budget.
func (q *Queen) SetRestartBudget(b RestartBudget) {
	q.budget = b
}

// ChooseTopology maps objective keywords to a topology: research/analysis
// -> mesh; build/develop -> hierarchical; monitor/maintain -> ring;
// coordinate/orchestrate -> star; else hierarchical.
func ChooseTopology(objective string) types.SwarmTopology {
	lower := strings.ToLower(objective)
	switch {
	case containsAny(lower, "research", "analysis", "analyze"):
		return types.TopologyMesh
	case containsAny(lower, "build", "develop", "implement"):
		return types.TopologyHierarchical
	case containsAny(lower, "monitor", "maintain"):
		return types.TopologyRing
	case containsAny(lower, "coordinate", "orchestrate"):
		return types.TopologyStar
	default:
		return types.TopologyHierarchical
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// Bootstrap spawns the Queen agent itself plus the initial worker mix for
// swarmID, subject to maxWorkers.
func (q *Queen) Bootstrap(ctx context.Context, swarmID string, maxWorkers int) (*types.Agent, error) {
	if maxWorkers <= 0 {
		maxWorkers = types.DefaultMaxWorkers
	}

	queenAgent, err := q.pool.SpawnQueen(ctx, swarmID, q.executorFor(types.TypeCoordinator))
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.InternalInvariant, "spawn queen", err)
	}

	for i, agentType := range DefaultWorkerMix {
		if i >= maxWorkers {
			break
		}
		if _, err := q.pool.Spawn(ctx, swarmID, agentType, q.executorFor(agentType)); err != nil {
			q.log.WithError(err).WithField("agent_type", agentType).Warn("failed to seed worker")
		}
	}
	return queenAgent, nil
}

func (q *Queen) executorFor(t types.AgentType) agentpool.Executor {
	if q.executors == nil {
		return noopExecutor{}
	}
	return q.executors(t)
}

// noopExecutor is used when the Coordinator has not wired a real executor
// yet, so spawn calls never nil-panic before the swarm is fully assembled.
type noopExecutor struct{}

func (noopExecutor) Execute(ctx context.Context, payload map[string]interface{}) (string, error) {
	return "", nil
}

// Run ticks the auto-scale and recovery cycle for swarmID until ctx is
// cancelled, using the same ticker-driven orchestration loop shape as the
// rest of the codebase's background cycles.
func (q *Queen) Run(ctx context.Context, swarmID string) {
	ticker := time.NewTicker(q.cycleInterval)
	defer ticker.Stop()

	q.runCycle(ctx, swarmID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.runCycle(ctx, swarmID)
		}
	}
}

func (q *Queen) runCycle(ctx context.Context, swarmID string) {
	q.AutoScale(ctx, swarmID)
	q.RecoverErroredAgents(ctx, swarmID)
}

// snapshot reads pending tasks and agents directly from Store since the Queen
// reasons about pool-wide pressure, not a single swarm's queue object.
func (q *Queen) snapshot(swarmID string) (pendingTasks []*tasks.Task, idleCount, poolSize int, err error) {
	allTasks, err := q.store.ListTasks(swarmID)
	if err != nil {
		return nil, 0, 0, err
	}
	for _, t := range allTasks {
		if t.Status == tasks.StatusPending {
			pendingTasks = append(pendingTasks, t)
		}
	}
	agents, err := q.store.ListAgents(swarmID)
	if err != nil {
		return nil, 0, 0, err
	}
	for _, a := range agents {
		if a.Role != types.RoleWorker {
			continue
		}
		poolSize++
		if a.Status == types.StatusIdle {
			idleCount++
		}
	}
	return pendingTasks, idleCount, poolSize, nil
}
