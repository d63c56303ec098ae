// Package agentpool manages agent lifecycle (spawn/retire) and capability
// bundles for the hive-mind coordinator. Grounded on
// internal/agents/spawner.go's lifecycle bookkeeping (runningAgents map,
// agentCounters sequence generator, a spawnMu serializing spawns), adapted
// from WezTerm-process spawning to in-process goroutine workers: each
// spawned agent runs an AgentLoop (loop.go) blocking on its Bus mailbox
// instead of a terminal pane.
package agentpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/bus"
	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/types"
)

// DefaultDrainTimeout bounds how long Retire waits for an agent's mailbox to
// empty before forcing removal: deadline bounded, default 5s.
const DefaultDrainTimeout = 5 * time.Second

// Pool owns every agent's lifecycle within a swarm process.
type Pool struct {
	store        store.Store
	bus          *bus.Bus
	bundles      map[types.AgentType]types.CapabilitySet
	log          *logrus.Entry
	drainTimeout time.Duration

	spawnMu  sync.Mutex // serializes spawns, grounded on spawner.go's spawnMu
	countMu  sync.Mutex
	counters map[types.AgentType]int

	runningMu sync.Mutex
	running   map[string]context.CancelFunc // agent id -> loop cancel + mailbox removal
}

// New builds a Pool over st/b using bundles as the type->capability table
// (pass types.DefaultCapabilityBundles() or agents.LoadCapabilityBundles's
// result).
func New(st store.Store, b *bus.Bus, bundles map[types.AgentType]types.CapabilitySet, log *logrus.Entry) *Pool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pool{
		store:        st,
		bus:          b,
		bundles:      bundles,
		log:          log,
		drainTimeout: DefaultDrainTimeout,
		counters:     make(map[types.AgentType]int),
		running:      make(map[string]context.CancelFunc),
	}
}

// Capabilities returns the capability set configured for agentType.
func (p *Pool) Capabilities(agentType types.AgentType) types.CapabilitySet {
	return p.bundles[agentType]
}

// generateID mints a sequential, per-type agent identifier, grounded on
// spawner.go's GenerateAgentID ("team-{type}{seq:03d}").
func (p *Pool) generateID(agentType types.AgentType) string {
	p.countMu.Lock()
	defer p.countMu.Unlock()
	p.counters[agentType]++
	return fmt.Sprintf("agent-%s-%03d", agentType, p.counters[agentType])
}

// Spawn allocates a worker agent of agentType in swarmID, records it in
// Store as idle, registers its Bus mailbox, and starts its AgentLoop.
func (p *Pool) Spawn(ctx context.Context, swarmID string, agentType types.AgentType, executor Executor) (*types.Agent, error) {
	return p.spawn(ctx, swarmID, types.RoleWorker, agentType, executor)
}

// SpawnQueen spawns the swarm's single Queen agent.
func (p *Pool) SpawnQueen(ctx context.Context, swarmID string, executor Executor) (*types.Agent, error) {
	return p.spawn(ctx, swarmID, types.RoleQueen, types.TypeCoordinator, executor)
}

func (p *Pool) spawn(ctx context.Context, swarmID string, role types.AgentRole, agentType types.AgentType, executor Executor) (*types.Agent, error) {
	p.spawnMu.Lock()
	defer p.spawnMu.Unlock()

	caps, ok := p.bundles[agentType]
	if !ok {
		return nil, hiveerr.New(hiveerr.InvalidRequest, "no capability bundle configured for agent type "+string(agentType))
	}

	now := time.Now()
	agent := &types.Agent{
		ID:           p.generateID(agentType),
		SwarmID:      swarmID,
		Role:         role,
		Type:         agentType,
		Status:       types.StatusIdle,
		Capabilities: caps,
		IdleSince:    now,
		CreatedAt:    now,
	}

	if err := p.store.PutAgent(agent); err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "persist spawned agent", err)
	}

	inbox := p.bus.Subscribe(agent.ID, []bus.Kind{bus.KindTaskAssignment, bus.KindCoordination})

	loopCtx, cancel := context.WithCancel(ctx)
	p.runningMu.Lock()
	p.running[agent.ID] = func() {
		cancel()
		p.bus.Unsubscribe(agent.ID, inbox)
	}
	p.runningMu.Unlock()

	go func() {
		AgentLoop(loopCtx, p, agent.ID, inbox, executor)
	}()

	p.log.WithFields(logrus.Fields{"agent_id": agent.ID, "type": agentType, "role": role}).Info("agent spawned")
	return agent, nil
}

// Retire transitions an agent through offline and removes its Bus mailbox,
// waiting up to the pool's drain timeout for in-flight messages to clear.
func (p *Pool) Retire(agentID string) error {
	agent, err := p.store.GetAgent(agentID)
	if err != nil {
		return err
	}
	if agent.Status == types.StatusOffline {
		return nil
	}

	deadline := time.Now().Add(p.drainTimeout)
	for agent.Status == types.StatusBusy && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		agent, err = p.store.GetAgent(agentID)
		if err != nil {
			return err
		}
	}

	if agent.Status == types.StatusBusy {
		// Drain deadline exceeded: force through error first, matching the
		// only state-machine path into offline from busy.
		if err := agent.TransitionTo(types.StatusError); err != nil {
			return hiveerr.Wrap(hiveerr.InternalInvariant, "forced error transition on drain timeout", err)
		}
	}
	if agent.Status != types.StatusOffline {
		if err := agent.TransitionTo(types.StatusOffline); err != nil {
			return hiveerr.Wrap(hiveerr.InternalInvariant, "retire transition", err)
		}
	}
	if err := p.store.PutAgent(agent); err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "persist retired agent", err)
	}

	p.runningMu.Lock()
	if cancel, ok := p.running[agentID]; ok {
		cancel()
		delete(p.running, agentID)
	}
	p.runningMu.Unlock()

	p.log.WithField("agent_id", agentID).Info("agent retired")
	return nil
}

// IdleCandidates returns every idle agent in swarmID whose capability set is
// a superset of required, for the Scheduler's capability-match step.
func (p *Pool) IdleCandidates(swarmID string, required types.CapabilitySet) ([]*types.Agent, error) {
	agents, err := p.store.ListAgents(swarmID)
	if err != nil {
		return nil, err
	}
	var candidates []*types.Agent
	for _, a := range agents {
		if a.Status == types.StatusIdle && a.Capabilities.Superset(required) {
			candidates = append(candidates, a)
		}
	}
	return candidates, nil
}
