package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/store"
	"github.com/hive-mind/coordinator/internal/types"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	return New(st, types.DefaultNamespaces(), nil)
}

func TestMemory_StoreRetrieve(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("hello"), 0))

	val, ok, err := m.Retrieve("default", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), val)
}

func TestMemory_RetrieveMiss(t *testing.T) {
	m := newTestMemory(t)

	val, ok, err := m.Retrieve("default", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestMemory_StoreIsIdempotentUpsert(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("v1"), 0))
	require.NoError(t, m.Store("default", "k1", []byte("v2"), 0))

	val, ok, err := m.Retrieve("default", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestMemory_UnknownNamespaceRejected(t *testing.T) {
	m := newTestMemory(t)

	err := m.Store("not-declared", "k1", []byte("v"), 0)
	require.Error(t, err)
	assert.Equal(t, hiveerr.NamespaceUnknown, hiveerr.CodeOf(err))
}

func TestMemory_DefaultNamespaceAutoCreates(t *testing.T) {
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	m := New(st, nil, nil)

	require.NoError(t, m.Store("default", "k1", []byte("v"), 0))
	val, ok, err := m.Retrieve("default", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("agent-state", "k1", []byte("v"), -time.Second))

	val, ok, err := m.Retrieve("agent-state", "k1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestMemory_Delete(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("v"), 0))
	require.NoError(t, m.Delete("default", "k1"))

	_, ok, err := m.Retrieve("default", "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_List(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("v1"), 0))
	require.NoError(t, m.Store("default", "k2", []byte("v2"), 0))
	require.NoError(t, m.Store("default", "k3", []byte("v3"), 0))

	entries, err := m.List("default", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemory_AccessCountBumpsOnRetrieve(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("v"), 0))
	_, _, err := m.Retrieve("default", "k1")
	require.NoError(t, err)
	_, _, err = m.Retrieve("default", "k1")
	require.NoError(t, err)

	entries, err := m.List("default", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.GreaterOrEqual(t, entries[0].AccessCount, int64(2))
}

func TestMemory_Stats(t *testing.T) {
	m := newTestMemory(t)

	require.NoError(t, m.Store("default", "k1", []byte("v"), 0))
	require.NoError(t, m.Store("task-results", "k2", []byte("v"), 0))

	stats, err := m.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.PerNamespace["default"])
	assert.Equal(t, 1, stats.PerNamespace["task-results"])
}

func TestMemory_CacheIsBoundedByCount(t *testing.T) {
	m := newTestMemory(t)

	for i := 0; i < DefaultCacheSize+10; i++ {
		key := "k" + string(rune('a'+i%26)) + string(rune(i))
		require.NoError(t, m.Store("default", key, []byte("v"), 0))
	}

	stats, err := m.Stats()
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.CacheEntries, DefaultCacheSize,
		"cache must never exceed its bounded size even for persistent (ttl=0) entries")
	assert.Equal(t, DefaultCacheSize+10, stats.TotalEntries,
		"eviction from the front cache must not drop entries from the durable store")
}
