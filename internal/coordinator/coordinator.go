// Package coordinator wires Store, Memory, Bus, Agent Pool, Scheduler,
// Consensus, and Queen into the one public surface every front door
// (the Go API and internal/httpapi) calls through: initialize,
// submit_objective, submit_task, cancel_task, propose, vote, status,
// subscribe, shutdown.
//
// Follows the same shape as internal/captain/captain.go: one owner of every
// subsystem, exposing a small set of top-level verbs that the HTTP layer
// is a thin wrapper over.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/agentpool"
	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/consensus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/memory"
	"github.com/hive-mind/coordinator/internal/metrics"
	"github.com/hive-mind/coordinator/internal/queen"
	"github.com/hive-mind/coordinator/internal/scheduler"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// SystemEvent is the JSON frame delivered to subscribe() callers, both the
// in-process Observer channel and the HTTP/WebSocket surface.
type SystemEvent struct {
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Timestamp int64                  `json:"timestamp"` // epoch-ms
	Payload   map[string]interface{} `json:"payload"`
}

// Config seeds a newly initialized swarm.
type Config struct {
	Name          string
	Objective     string
	QueenMode     types.QueenMode
	MaxWorkers    int
	CycleInterval time.Duration
	Executor      func(types.AgentType) agentpool.Executor
}

// Coordinator exclusively owns the Store connection; every other
// component borrows it through the narrow store.Store interface. It also
// owns the root shutdown context every suspension point in the system is
// derived from.
type Coordinator struct {
	store     store.Store
	bus       *bus.Bus
	memory    *memory.Memory
	pool      *agentpool.Pool
	scheduler *scheduler.Scheduler
	consensus *consensus.Engine
	queen     *queen.Queen
	log       *logrus.Entry

	metricsCollector *metrics.MetricsCollector
	alertEngine      *metrics.AlertChecker

	rootCtx    context.Context
	cancelRoot context.CancelFunc

	mu          sync.Mutex
	swarms      map[string]*swarmRuntime
	subscribers map[string]chan SystemEvent
	natsMirror  natsMirrorHandle
}

type swarmRuntime struct {
	cancel context.CancelFunc
}

// Option customizes a Coordinator at construction time. Most callers pass
// none and get the default configuration below.
type Option func(*options)

type options struct {
	namespaces         []types.NamespaceConfig
	participationFloor float64
	minConfidence      float64
	queueHighWatermark int
}

// WithNamespaces overrides the default memory namespace set, used by
// hivectl's --memory-size flag to scale the size-based namespace's
// capacity instead of accepting types.DefaultNamespaces() as-is.
func WithNamespaces(ns []types.NamespaceConfig) Option {
	return func(o *options) { o.namespaces = ns }
}

// WithParticipationFloor overrides the consensus engine's default 50%
// quorum floor, used by hivectl to apply the config file's
// consensus_quorum_floor setting.
func WithParticipationFloor(f float64) Option {
	return func(o *options) { o.participationFloor = f }
}

// WithMinConfidence sets the quality floor a weighted consensus decision's
// tally confidence must clear to be accepted, sourced from the
// HIVE_MIN_CONFIDENCE environment override.
func WithMinConfidence(f float64) Option {
	return func(o *options) { o.minConfidence = f }
}

// WithQueueHighWatermark overrides the Scheduler's default admission
// backpressure threshold, sourced from the config file's
// defaults.queue_high_watermark.
func WithQueueHighWatermark(n int) Option {
	return func(o *options) { o.queueHighWatermark = n }
}

// New assembles a Coordinator over an already-open Store. The Coordinator
// does not open or close st's underlying connection pool; the caller that
// constructed st owns that lifecycle.
func New(st store.Store, log *logrus.Entry, opts ...Option) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	o := &options{namespaces: types.DefaultNamespaces()}
	for _, opt := range opts {
		opt(o)
	}
	root, cancel := context.WithCancel(context.Background())

	b := bus.New()
	bundles := types.DefaultCapabilityBundles()
	pool := agentpool.New(st, b, bundles, log)
	sched := scheduler.New(st, b, pool, bundles, log)
	if o.queueHighWatermark > 0 {
		sched.SetQueueHighWatermark(o.queueHighWatermark)
	}
	cons := consensus.New(st, b, log)
	if o.participationFloor > 0 {
		cons.SetParticipationFloor(o.participationFloor)
	}
	if o.minConfidence > 0 {
		cons.SetMinConfidence(o.minConfidence)
	}
	mem := memory.New(st, o.namespaces, log)
	collector, alertEngine := newMetricsSubsystem()

	c := &Coordinator{
		store:            st,
		bus:              b,
		memory:           mem,
		pool:             pool,
		scheduler:        sched,
		consensus:        cons,
		log:              log,
		metricsCollector: collector,
		alertEngine:      alertEngine,
		rootCtx:          root,
		cancelRoot:       cancel,
		swarms:           make(map[string]*swarmRuntime),
		subscribers:      make(map[string]chan SystemEvent),
	}
	c.queen = queen.New(st, b, pool, sched, nil, log)

	go sched.Run(root)
	go mem.RunSweeps(root)
	go cons.RunSweeps(root, c.trackedSwarmIDs)
	c.fanOutEvents(root)
	c.watchMetrics(root)
	return c
}

// trackedSwarmIDs returns the ids of every swarm the Coordinator has
// bootstrapped, for consensus.Engine.RunSweeps to enumerate proposals over.
func (c *Coordinator) trackedSwarmIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.swarms))
	for id := range c.swarms {
		ids = append(ids, id)
	}
	return ids
}

// Initialize creates an empty swarm (no Queen, no workers) in the
// initializing status and returns its id.
func (c *Coordinator) Initialize(cfg Config) (string, error) {
	now := time.Now()
	swarm := &types.Swarm{
		ID:         uuid.New().String(),
		Name:       cfg.Name,
		Objective:  cfg.Objective,
		Topology:   queen.ChooseTopology(cfg.Objective),
		QueenMode:  cfg.QueenMode,
		Status:     types.SwarmInitializing,
		MaxWorkers: cfg.MaxWorkers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if swarm.QueenMode == "" {
		swarm.QueenMode = types.QueenCentralized
	}
	if swarm.MaxWorkers <= 0 {
		swarm.MaxWorkers = types.DefaultMaxWorkers
	}
	if err := c.store.PutSwarm(swarm); err != nil {
		return "", hiveerr.Wrap(hiveerr.StoreUnavailable, "persist new swarm", err)
	}

	c.mu.Lock()
	if _, tracked := c.swarms[swarm.ID]; !tracked {
		c.swarms[swarm.ID] = &swarmRuntime{cancel: func() {}}
	}
	c.mu.Unlock()

	c.emit(SystemEvent{Type: "swarm_initialized", Source: swarm.ID, Payload: map[string]interface{}{"swarm_id": swarm.ID}})
	return swarm.ID, nil
}

// SubmitObjective creates a swarm, spawns its Queen and initial workers,
// and starts the Queen's auto-scale/recovery cycle.
func (c *Coordinator) SubmitObjective(text string, cfg Config) (string, error) {
	if text == "" {
		return "", hiveerr.New(hiveerr.InvalidRequest, "objective text required")
	}
	cfg.Objective = text
	swarmID, err := c.Initialize(cfg)
	if err != nil {
		return "", err
	}

	if cfg.Executor != nil {
		c.mu.Lock()
		c.queen = queen.New(c.store, c.bus, c.pool, c.scheduler, cfg.Executor, c.log)
		if cfg.CycleInterval > 0 {
			c.queen.SetCycleInterval(cfg.CycleInterval)
		}
		c.mu.Unlock()
	}

	if _, err := c.queen.Bootstrap(c.rootCtx, swarmID, cfg.MaxWorkers); err != nil {
		return "", err
	}

	swarm, err := c.store.GetSwarm(swarmID)
	if err != nil {
		return "", hiveerr.Wrap(hiveerr.StoreUnavailable, "reload swarm after bootstrap", err)
	}
	swarm.Status = types.SwarmActive
	swarm.UpdatedAt = time.Now()
	if err := c.store.PutSwarm(swarm); err != nil {
		return "", hiveerr.Wrap(hiveerr.StoreUnavailable, "activate swarm", err)
	}

	swarmCtx, cancel := context.WithCancel(c.rootCtx)
	c.mu.Lock()
	c.swarms[swarmID] = &swarmRuntime{cancel: cancel}
	c.mu.Unlock()
	go c.queen.Run(swarmCtx, swarmID)

	c.emit(SystemEvent{Type: "objective_submitted", Source: swarmID, Payload: map[string]interface{}{"objective": text}})
	return swarmID, nil
}

// SubmitTask hands a task to the Scheduler for admission, then makes an
// immediate assignment attempt.
func (c *Coordinator) SubmitTask(t *tasks.Task) (string, error) {
	if err := c.scheduler.Submit(t); err != nil {
		return "", err
	}
	c.scheduler.TryAssign(t.SwarmID)
	c.emit(SystemEvent{Type: "task_submitted", Source: t.SwarmID, Payload: map[string]interface{}{"task_id": t.ID}})
	return t.ID, nil
}

// CancelTask cancels taskID, idempotently.
func (c *Coordinator) CancelTask(taskID string, drainTimeout time.Duration) error {
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}
	err := c.scheduler.Cancel(taskID, drainTimeout)
	if err == nil {
		c.emit(SystemEvent{Type: "task_cancelled", Source: taskID, Payload: map[string]interface{}{"task_id": taskID}})
	}
	return err
}

// Propose opens a consensus proposal.
func (c *Coordinator) Propose(swarmID, topic string, options []string, algorithm types.ConsensusAlgorithm, deadline time.Time, eligibleVoters []string, weightedVoter string) (string, error) {
	p, err := c.consensus.Propose(swarmID, topic, options, algorithm, deadline, eligibleVoters, weightedVoter)
	if err != nil {
		return "", err
	}
	c.emit(SystemEvent{Type: "proposal_opened", Source: swarmID, Payload: map[string]interface{}{"proposal_id": p.ID, "topic": topic}})
	return p.ID, nil
}

// Vote records a vote on an open proposal.
func (c *Coordinator) Vote(proposalID, voter, choice string) (*types.Proposal, error) {
	p, err := c.consensus.Vote(proposalID, voter, choice)
	if err != nil {
		return nil, err
	}
	if p.Status != types.ProposalOpen {
		c.emit(SystemEvent{Type: "proposal_decided", Source: p.SwarmID, Payload: map[string]interface{}{"proposal_id": p.ID, "decision": p.Decision, "confidence": p.Confidence}})
	}
	return p, nil
}

// Subscribe returns a channel of SystemEvents and a cancel function, built
// as an Observer channel rather than a closure-over-this handler callback.
func (c *Coordinator) Subscribe() (<-chan SystemEvent, func()) {
	id := uuid.New().String()
	ch := make(chan SystemEvent, 64)

	c.mu.Lock()
	c.subscribers[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

func (c *Coordinator) emit(evt SystemEvent) {
	evt.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- evt:
		default:
			c.log.WithField("event_type", evt.Type).Warn("subscriber channel full, dropping event")
		}
	}
}

// fanOutEvents bridges the Bus's own KindNotification/KindCoordination
// traffic (Scheduler and Consensus emissions) onto the SystemEvent
// subscriber fan-out, so HTTP subscribers see bus-level activity too.
func (c *Coordinator) fanOutEvents(ctx context.Context) {
	ch := c.bus.Subscribe("all", []bus.Kind{bus.KindNotification, bus.KindCoordination})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				c.emit(SystemEvent{Type: string(msg.Kind), Source: msg.From, Payload: msg.Payload})
			}
		}
	}()
}
