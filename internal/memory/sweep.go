package memory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/types"
)

// Sweep intervals for the background maintenance cycles.
const (
	expirySweepInterval      = 60 * time.Second
	retentionSweepInterval   = time.Hour
	compressionSweepInterval = time.Hour
)

// RunSweeps starts the three background sweeps (expired-entry, retention
// policy enforcement, compression) as cooperative goroutines selecting on
// their ticker and ctx, the way internal/memory/captain_context.go's
// CleanExpiredContext was invoked from a ticker loop. It blocks until ctx
// is cancelled, so callers should run it in its own goroutine.
func (m *Memory) RunSweeps(ctx context.Context) {
	expiry := time.NewTicker(expirySweepInterval)
	retention := time.NewTicker(retentionSweepInterval)
	compression := time.NewTicker(compressionSweepInterval)
	defer expiry.Stop()
	defer retention.Stop()
	defer compression.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expiry.C:
			m.sweepExpired()
		case <-retention.C:
			m.sweepRetention()
		case <-compression.C:
			m.sweepCompression()
		}
	}
}

func (m *Memory) sweepExpired() {
	now := time.Now()
	for _, ns := range m.Namespaces() {
		entries, err := m.store.ListMemoryEntries(ns.Name)
		if err != nil {
			m.log.WithError(err).Warn("expiry sweep: list failed")
			continue
		}
		removed := 0
		for _, e := range entries {
			if e.Expired(now) {
				if err := m.store.DeleteMemoryEntry(e.Namespace, e.Key); err != nil {
					m.log.WithError(err).Warn("expiry sweep: delete failed")
					continue
				}
				m.cache.Remove(cacheKey(e.Namespace, e.Key))
				removed++
			}
		}
		if removed > 0 {
			m.log.WithFields(logrus.Fields{"namespace": ns.Name, "removed": removed}).Debug("expiry sweep removed entries")
		}
	}
}

// sweepRetention enforces each namespace's declared policy: time-based
// namespaces drop entries older than their TTL even without an explicit
// per-entry expiry, size-based namespaces trim to MaxEntries by evicting
// the least-recently-accessed entries first.
func (m *Memory) sweepRetention() {
	now := time.Now()
	for _, ns := range m.Namespaces() {
		entries, err := m.store.ListMemoryEntries(ns.Name)
		if err != nil {
			m.log.WithError(err).Warn("retention sweep: list failed")
			continue
		}

		switch ns.Policy {
		case types.RetentionTimeBased:
			for _, e := range entries {
				if ns.TTL > 0 && now.Sub(e.CreatedAt) > ns.TTL {
					_ = m.store.DeleteMemoryEntry(e.Namespace, e.Key)
					m.cache.Remove(cacheKey(e.Namespace, e.Key))
				}
			}
		case types.RetentionSizeBased:
			if ns.MaxEntries <= 0 || len(entries) <= ns.MaxEntries {
				continue
			}
			sortEntries(entries, SortByRecent)
			evict := entries[ns.MaxEntries:]
			for _, e := range evict {
				_ = m.store.DeleteMemoryEntry(e.Namespace, e.Key)
				m.cache.Remove(cacheKey(e.Namespace, e.Key))
			}
			m.log.WithFields(logrus.Fields{"namespace": ns.Name, "evicted": len(evict)}).Debug("size-based retention evicted entries")
		}
	}
}

func (m *Memory) sweepCompression() {
	for _, ns := range m.Namespaces() {
		count, err := m.Compress(ns.Name)
		if err != nil {
			m.log.WithError(err).Warn("compression sweep failed")
			continue
		}
		if count > 0 {
			m.log.WithFields(logrus.Fields{"namespace": ns.Name, "compressed": count}).Debug("compression sweep compressed entries")
		}
	}
}
