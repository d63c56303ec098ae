package store

import (
	"sync"
	"time"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// InMemoryStore is a Store implementation backed entirely by in-process
// maps. Grounded on internal/persistence/store.go's coarse-mutex, map-of-ID
// design, generalized from a single dashboard-state blob to the
// swarm/agent/task/proposal/memory-entry entities. Used by tests; hivectl
// opens the SQLite store and does not fall back to this one when that fails.
type InMemoryStore struct {
	mu        sync.RWMutex
	swarms    map[string]*types.Swarm
	agents    map[string]*types.Agent
	tasks     map[string]*tasks.Task
	proposals map[string]*types.Proposal
	memory    map[string]map[string]*types.MemoryEntry // namespace -> key -> entry
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		swarms:    make(map[string]*types.Swarm),
		agents:    make(map[string]*types.Agent),
		tasks:     make(map[string]*tasks.Task),
		proposals: make(map[string]*types.Proposal),
		memory:    make(map[string]map[string]*types.MemoryEntry),
	}
}

func (s *InMemoryStore) PutSwarm(sw *types.Swarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sw
	s.swarms[sw.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetSwarm(id string) (*types.Swarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sw, ok := s.swarms[id]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "swarm not found")
	}
	cp := *sw
	return &cp, nil
}

func (s *InMemoryStore) ListSwarms() ([]*types.Swarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Swarm, 0, len(s.swarms))
	for _, sw := range s.swarms {
		cp := *sw
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteSwarm(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.swarms, id)
	return nil
}

func (s *InMemoryStore) PutAgent(a *types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.agents[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetAgent(id string) (*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "agent not found")
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) ListAgents(swarmID string) ([]*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Agent
	for _, a := range s.agents {
		if swarmID != "" && a.SwarmID != swarmID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteAgent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, id)
	return nil
}

func (s *InMemoryStore) PutTask(t *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetTask(id string) (*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "task not found")
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) ListTasks(swarmID string) ([]*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*tasks.Task
	for _, t := range s.tasks {
		if swarmID != "" && t.SwarmID != swarmID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *InMemoryStore) AssignTask(task *tasks.Task, agent *types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tcp := *task
	s.tasks[task.ID] = &tcp
	acp := *agent
	s.agents[agent.ID] = &acp
	return nil
}

func (s *InMemoryStore) PutProposal(p *types.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.proposals[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetProposal(id string) (*types.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "proposal not found")
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListProposals(swarmID string) ([]*types.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Proposal
	for _, p := range s.proposals {
		if swarmID != "" && p.SwarmID != swarmID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) PutMemoryEntry(e *types.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.memory[e.Namespace]
	if !ok {
		ns = make(map[string]*types.MemoryEntry)
		s.memory[e.Namespace] = ns
	}
	cp := *e
	ns[e.Key] = &cp
	return nil
}

func (s *InMemoryStore) GetMemoryEntry(namespace, key string) (*types.MemoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.memory[namespace]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "memory entry not found")
	}
	e, ok := ns[key]
	if !ok {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "memory entry not found")
	}
	cp := *e
	return &cp, nil
}

func (s *InMemoryStore) DeleteMemoryEntry(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.memory[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

func (s *InMemoryStore) ListMemoryEntries(namespace string) ([]*types.MemoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.MemoryEntry
	for _, e := range s.memory[namespace] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) ExpiredMemoryEntries(now time.Time) ([]*types.MemoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.MemoryEntry
	for _, ns := range s.memory {
		for _, e := range ns {
			if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
				cp := *e
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := 0
	for _, ns := range s.memory {
		keys += len(ns)
	}
	return Stats{
		Swarms:     len(s.swarms),
		Agents:     len(s.agents),
		Tasks:      len(s.tasks),
		Proposals:  len(s.proposals),
		MemoryKeys: keys,
	}, nil
}

func (s *InMemoryStore) Close() error { return nil }
