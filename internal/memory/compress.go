package memory

import (
	"bytes"
	"compress/gzip"
	"io"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// compressAge/compressMinSize/compressMaxAccess are the eligibility
// thresholds: age>7days, size>10000 bytes, access_count<5.
const (
	compressAge       = 7 * 24 * time.Hour
	compressMinSize   = 10000
	compressMaxAccess = 5
)

func eligibleForCompression(e *types.MemoryEntry, now time.Time) bool {
	if e.Compressed {
		return false
	}
	return now.Sub(e.CreatedAt) > compressAge &&
		len(e.Value) > compressMinSize &&
		e.AccessCount < compressMaxAccess
}

func gzipBytes(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// decompress returns an entry's plaintext value, transparently inflating it
// if Compress tagged it. Retrieve callers never see the compressed bytes.
func decompress(e *types.MemoryEntry) []byte {
	if !e.Compressed {
		return e.Value
	}
	raw, err := gunzipBytes(e.Value)
	if err != nil {
		// corrupt compressed payload: surface the compressed bytes rather
		// than panicking: the caller can at least see something changed.
		return e.Value
	}
	return raw
}

// Compress gzips every entry in ns eligible (age>7d, size>10000B,
// access_count<5), tagging each with Compressed=true and
// OriginalLen so Retrieve can invert it. Returns the number compressed.
// Grounded on internal/memory/captain_context.go's CleanExpiredContext,
// which sweeps a namespace by scanning every row and rewriting matches.
func (m *Memory) Compress(ns string) (int, error) {
	if _, err := m.resolveNamespace(ns); err != nil {
		return 0, err
	}

	entries, err := m.store.ListMemoryEntries(ns)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	count := 0
	for _, e := range entries {
		if !eligibleForCompression(e, now) {
			continue
		}
		packed, err := gzipBytes(e.Value)
		if err != nil {
			m.log.WithError(err).WithField("key", e.Key).Warn("compression failed")
			continue
		}
		e.OriginalLen = len(e.Value)
		e.Value = packed
		e.Compressed = true
		if err := m.store.PutMemoryEntry(e); err != nil {
			return count, err
		}
		m.cache.Remove(cacheKey(ns, e.Key))
		count++
	}
	m.log.WithFields(map[string]interface{}{"namespace": ns, "count": count}).Info("memory compression sweep complete")
	return count, nil
}
