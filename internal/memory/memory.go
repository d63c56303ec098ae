// Package memory implements the namespaced (namespace,key)->value store
// fronted by a bounded TTL cache. Grounded on
// internal/memory/captain_context.go's CleanExpiredContext age-based SQL
// sweep, generalized from the single captain_context table to arbitrary
// namespaces layered over internal/store, and on a mutex-guarded map for
// the namespace registry.
package memory

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/stringutils"
	"github.com/hive-mind/coordinator/internal/types"
)

// DefaultCacheSize bounds the front cache to a fixed number of entries,
// beyond which the least-recently-used entry is evicted regardless of TTL.
const DefaultCacheSize = 1000

// Memory is the namespaced key/value store.
type Memory struct {
	store store.Store
	cache *lru.Cache[string, *types.MemoryEntry]
	log   *logrus.Entry

	mu         sync.RWMutex
	namespaces map[string]types.NamespaceConfig
}

// New builds a Memory over st, registering ns (types.DefaultNamespaces() if
// the caller wants the minimum required set). The front cache is bounded to
// DefaultCacheSize entries with LRU eviction; TTL expiry is checked
// separately and lazily on lookup.
func New(st store.Store, ns []types.NamespaceConfig, log *logrus.Entry) *Memory {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c, err := lru.New[string, *types.MemoryEntry](DefaultCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which DefaultCacheSize
		// never is.
		panic(err)
	}
	m := &Memory{
		store:      st,
		cache:      c,
		log:        log,
		namespaces: make(map[string]types.NamespaceConfig),
	}
	for _, n := range ns {
		m.namespaces[n.Name] = n
	}
	if _, ok := m.namespaces["default"]; !ok {
		m.namespaces["default"] = types.NamespaceConfig{Name: "default", Policy: types.RetentionPersistent}
	}
	return m
}

func cacheKey(namespace, key string) string { return namespace + "\x00" + key }

// sanitizeKey strips stray whitespace from a caller-supplied key so it
// can't collide with another key that differs only by incidental spacing
// around the cacheKey separator, and rejects a key that is empty once
// stripped.
func sanitizeKey(key string) (string, error) {
	clean := stringutils.TrimAll(key)
	if stringutils.IsEmpty(clean) {
		return "", hiveerr.New(hiveerr.InvalidRequest, "memory key must not be empty")
	}
	return clean, nil
}

// resolveNamespace auto-creates "default" (the sole exception per §4.2) and
// rejects everything else that was never registered.
func (m *Memory) resolveNamespace(ns string) (types.NamespaceConfig, error) {
	m.mu.RLock()
	cfg, ok := m.namespaces[ns]
	m.mu.RUnlock()
	if ok {
		return cfg, nil
	}
	if ns == "default" || ns == "" {
		cfg = types.NamespaceConfig{Name: "default", Policy: types.RetentionPersistent}
		m.mu.Lock()
		m.namespaces["default"] = cfg
		m.mu.Unlock()
		return cfg, nil
	}
	return types.NamespaceConfig{}, hiveerr.New(hiveerr.NamespaceUnknown, "namespace "+ns+" is not declared")
}

// Namespaces returns the currently registered namespace configs.
func (m *Memory) Namespaces() []types.NamespaceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.NamespaceConfig, 0, len(m.namespaces))
	for _, cfg := range m.namespaces {
		out = append(out, cfg)
	}
	return out
}

// Store is an idempotent upsert: write through to Store, then populate cache.
func (m *Memory) Store(ns, key string, value []byte, ttl time.Duration) error {
	if _, err := m.resolveNamespace(ns); err != nil {
		return err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return err
	}

	now := time.Now()
	entry := &types.MemoryEntry{
		Namespace:  ns,
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		TTLSeconds: int64(ttl / time.Second),
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	if err := m.store.PutMemoryEntry(entry); err != nil {
		return err
	}

	m.cache.Add(cacheKey(ns, key), entry)
	m.log.WithFields(logrus.Fields{"namespace": ns, "key": key}).Debug("memory entry stored")
	return nil
}

// Retrieve returns the value for (ns, key), or (nil, false, nil) on a miss.
// Expired entries are deleted lazily and reported as a miss, not an error.
func (m *Memory) Retrieve(ns, key string) ([]byte, bool, error) {
	if _, err := m.resolveNamespace(ns); err != nil {
		return nil, false, err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()

	if entry, ok := m.cache.Get(cacheKey(ns, key)); ok {
		if entry.Expired(now) {
			m.cache.Remove(cacheKey(ns, key))
			_ = m.store.DeleteMemoryEntry(ns, key)
			return nil, false, nil
		}
		m.bumpAccess(entry)
		return decompress(entry), true, nil
	}

	entry, err := m.store.GetMemoryEntry(ns, key)
	if err != nil {
		if hiveerr.Is(err, hiveerr.UnknownEntity) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if entry.Expired(now) {
		_ = m.store.DeleteMemoryEntry(ns, key)
		return nil, false, nil
	}

	m.bumpAccess(entry)
	m.cache.Add(cacheKey(ns, key), entry)
	return decompress(entry), true, nil
}

func (m *Memory) bumpAccess(entry *types.MemoryEntry) {
	entry.AccessCount++
	entry.LastAccessAt = time.Now()
	if err := m.store.PutMemoryEntry(entry); err != nil {
		m.log.WithError(err).Warn("failed to persist access-count bump")
	}
}

// Delete removes (ns, key) from both the cache and Store.
func (m *Memory) Delete(ns, key string) error {
	key, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	m.cache.Remove(cacheKey(ns, key))
	return m.store.DeleteMemoryEntry(ns, key)
}

// List returns up to limit entries in ns, most recently created first.
func (m *Memory) List(ns string, limit int) ([]*types.MemoryEntry, error) {
	if _, err := m.resolveNamespace(ns); err != nil {
		return nil, err
	}
	entries, err := m.store.ListMemoryEntries(ns)
	if err != nil {
		return nil, err
	}
	sortByCreatedDesc(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Stats summarizes per-namespace entry counts and overall cache occupancy.
type Stats struct {
	TotalEntries int
	CacheEntries int
	PerNamespace map[string]int
}

// Stats aggregates counts across every registered namespace.
func (m *Memory) Stats() (Stats, error) {
	m.mu.RLock()
	namespaces := make([]string, 0, len(m.namespaces))
	for name := range m.namespaces {
		namespaces = append(namespaces, name)
	}
	m.mu.RUnlock()

	out := Stats{PerNamespace: make(map[string]int, len(namespaces)), CacheEntries: m.cache.Len()}
	for _, ns := range namespaces {
		entries, err := m.store.ListMemoryEntries(ns)
		if err != nil {
			return Stats{}, err
		}
		out.PerNamespace[ns] = len(entries)
		out.TotalEntries += len(entries)
	}
	return out, nil
}

func sortByCreatedDesc(entries []*types.MemoryEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].CreatedAt.After(entries[j-1].CreatedAt); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
