package memory

import (
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// SortBy selects the ordering search results come back in.
type SortBy string

const (
	SortByAccess  SortBy = "access"
	SortByRecent  SortBy = "recent"
	SortByCreated SortBy = "created"
)

// SearchOptions narrows Search's scan: an empty Namespace scans every
// registered namespace.
type SearchOptions struct {
	Namespace      string
	Pattern        string
	KeyPrefix      string
	MinAccessCount int64
	Limit          int
	SortBy         SortBy
}

// Search scans entries matching opts via a case-insensitive substring match
// on Pattern (against key and value), grounded on internal/stringutils'
// plain strings.Contains helpers rather than a regex/index engine, since
// none of the pack's repos import a search library for this scale of data.
func (m *Memory) Search(opts SearchOptions) ([]*types.MemoryEntry, error) {
	var namespaces []string
	if opts.Namespace != "" {
		if _, err := m.resolveNamespace(opts.Namespace); err != nil {
			return nil, err
		}
		namespaces = []string{opts.Namespace}
	} else {
		m.mu.RLock()
		for name := range m.namespaces {
			namespaces = append(namespaces, name)
		}
		m.mu.RUnlock()
	}

	now := time.Now()
	var matches []*types.MemoryEntry
	for _, ns := range namespaces {
		entries, err := m.store.ListMemoryEntries(ns)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Expired(now) {
				continue
			}
			if opts.KeyPrefix != "" && !hasPrefixFold(e.Key, opts.KeyPrefix) {
				continue
			}
			if opts.MinAccessCount > 0 && e.AccessCount < opts.MinAccessCount {
				continue
			}
			if opts.Pattern != "" && !containsFold(e.Key, opts.Pattern) && !containsFold(string(decompress(e)), opts.Pattern) {
				continue
			}
			matches = append(matches, e)
		}
	}

	sortEntries(matches, opts.SortBy)
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && containsFold(s[:len(prefix)], prefix)
}

func sortEntries(entries []*types.MemoryEntry, by SortBy) {
	switch by {
	case SortByAccess:
		insertionSort(entries, func(a, b *types.MemoryEntry) bool { return a.AccessCount > b.AccessCount })
	case SortByCreated:
		insertionSort(entries, func(a, b *types.MemoryEntry) bool { return a.CreatedAt.After(b.CreatedAt) })
	default: // SortByRecent
		insertionSort(entries, func(a, b *types.MemoryEntry) bool { return a.LastAccessAt.After(b.LastAccessAt) })
	}
}

func insertionSort(entries []*types.MemoryEntry, less func(a, b *types.MemoryEntry) bool) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && less(entries[j], entries[j-1]); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
