// Package scheduler turns submitted tasks into assignments to agents,
// honoring dependencies, priorities, required capabilities, and concurrency
// caps. Grounded on internal/tasks' Queue/Task status-transition table for
// the admission and readiness machinery; cycle detection and the
// unknown-dependency/unsatisfiable-capability rejects are new code
// following the same reject-at-submission shape used elsewhere in the
// validation layers.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/agentpool"
	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// Canonical priority numbers from the low/normal/high/critical levels the
// public API accepts; Task.Priority itself is a plain int so callers using
// these constants and callers using raw numbers compare consistently.
const (
	PriorityLow      = 1
	PriorityNormal   = 5
	PriorityHigh     = 8
	PriorityCritical = 10
)

const (
	defaultStealIdle   = 30 * time.Second
	retryBaseDelay     = 2 * time.Second
	retryMaxDelay      = 2 * time.Minute
	reportTarget       = "scheduler"
	cancelDrainTimeout = 5 * time.Second
)

// Scheduler owns the ready queue for every swarm it has seen and drives
// tasks through admission, assignment, execution observation, stealing,
// cancellation, and retry.
type Scheduler struct {
	store   store.Store
	bus     *bus.Bus
	pool    *agentpool.Pool
	bundles map[types.AgentType]types.CapabilitySet
	log     *logrus.Entry

	stealIdle          time.Duration
	queueHighWatermark int

	mu     sync.Mutex
	queues map[string]*tasks.Queue

	progress <-chan bus.Message
}

// New builds a Scheduler. bundles must be the same capability table the
// pool was constructed with, so UnsatisfiableCapability rejects agree with
// what the pool can actually spawn.
func New(st store.Store, b *bus.Bus, pool *agentpool.Pool, bundles map[types.AgentType]types.CapabilitySet, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{
		store:     st,
		bus:       b,
		pool:      pool,
		bundles:   bundles,
		log:       log,
		stealIdle: defaultStealIdle,
		queues:    make(map[string]*tasks.Queue),
		progress:  b.Subscribe(reportTarget, []bus.Kind{bus.KindProgressUpdate}),
	}
}

// SetQueueHighWatermark sets the per-swarm queue depth above which Submit
// starts rejecting new tasks with Busy. Zero (the default) disables the
// check.
func (s *Scheduler) SetQueueHighWatermark(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueHighWatermark = n
}

func (s *Scheduler) queueFor(swarmID string) *tasks.Queue {
	q, ok := s.queues[swarmID]
	if !ok {
		q = tasks.NewQueue()
		s.queues[swarmID] = q
	}
	return q
}

// Submit admits a task spec: validates it, assigns an id if missing, checks
// its dependencies exist and are acyclic, confirms some configured agent
// type could ever satisfy its required capabilities, then inserts it
// pending.
func (s *Scheduler) Submit(task *tasks.Task) error {
	if err := task.Validate(); err != nil {
		return hiveerr.Wrap(hiveerr.InvalidRequest, "task validation", err)
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Strategy == "" {
		task.Strategy = tasks.StrategySingle
	}
	if task.MaxAgents == 0 {
		task.MaxAgents = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queueHighWatermark > 0 && s.queueFor(task.SwarmID).Len() > s.queueHighWatermark {
		return hiveerr.New(hiveerr.Busy, "task queue exceeds high watermark for swarm "+task.SwarmID)
	}

	existing, err := s.store.ListTasks(task.SwarmID)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "list tasks for admission", err)
	}
	byID := make(map[string]*tasks.Task, len(existing)+1)
	for _, t := range existing {
		byID[t.ID] = t
	}
	if _, dup := byID[task.ID]; dup {
		return hiveerr.New(hiveerr.InvalidRequest, "task id already exists in swarm "+task.SwarmID)
	}
	byID[task.ID] = task

	for _, dep := range task.DependsOn {
		if _, ok := byID[dep]; !ok {
			return hiveerr.New(hiveerr.UnknownDependency, "unknown dependency id "+dep)
		}
	}
	if hasCycle(byID, task.ID) {
		return hiveerr.New(hiveerr.CyclicDependency, "task "+task.ID+" introduces a dependency cycle")
	}
	if !s.satisfiable(task.RequiredCapabilities) {
		return hiveerr.New(hiveerr.UnsatisfiableCapability, "no configured agent type can satisfy the required capabilities")
	}

	if err := s.store.PutTask(task); err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "persist new task", err)
	}
	s.queueFor(task.SwarmID).Add(task)
	return nil
}

func (s *Scheduler) satisfiable(required types.CapabilitySet) bool {
	for _, bundle := range s.bundles {
		if bundle.Superset(required) {
			return true
		}
	}
	return len(required) == 0
}

// hasCycle reports whether the dependency graph rooted at startID (DFS
// over DependsOn edges) revisits a node still on the current path.
func hasCycle(byID map[string]*tasks.Task, startID string) bool {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(byID))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case visiting:
			return true
		case done:
			return false
		}
		state[id] = visiting
		if t, ok := byID[id]; ok {
			for _, dep := range t.DependsOn {
				if visit(dep) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}
	return visit(startID)
}
