package memory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hive-mind/coordinator/internal/store"
)

func TestMemory_BackupRestoreRoundTrip(t *testing.T) {
	src := newTestMemory(t)
	require.NoError(t, src.Store("default", "k1", []byte("v1"), 0))
	require.NoError(t, src.Store("learning-data", "k2", []byte("v2"), 0))

	var buf bytes.Buffer
	require.NoError(t, src.Backup(&buf))

	dstStore := store.NewInMemoryStore()
	t.Cleanup(func() { dstStore.Close() })
	dst := New(dstStore, nil, nil)
	require.NoError(t, dst.Restore(&buf))

	val, ok, err := dst.Retrieve("default", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	val, ok, err = dst.Retrieve("learning-data", "k2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestMemory_BackupCapturesNamespaceConfigs(t *testing.T) {
	src := newTestMemory(t)

	var buf bytes.Buffer
	require.NoError(t, src.Backup(&buf))

	dstStore := store.NewInMemoryStore()
	t.Cleanup(func() { dstStore.Close() })
	dst := New(dstStore, nil, nil)
	require.NoError(t, dst.Restore(&buf))

	// performance-metrics is only known to dst because Restore replayed
	// the backed-up namespace configs; storing into it must not fail with
	// NamespaceUnknown.
	require.NoError(t, dst.Store("performance-metrics", "k1", []byte("v"), 0))
}
