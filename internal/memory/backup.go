package memory

import (
	"encoding/json"
	"io"

	"github.com/hive-mind/coordinator/internal/types"
)

// backupEnvelope is the on-wire shape written by Backup and read by Restore.
// Kept as a thin JSON document (rather than the store's native format) so a
// backup taken against SQLite can be restored into any future store.Store
// implementation.
type backupEnvelope struct {
	Namespaces []types.NamespaceConfig `json:"namespaces"`
	Entries    []*types.MemoryEntry    `json:"entries"`
}

// Backup serializes every registered namespace and its entries to w as JSON.
func (m *Memory) Backup(w io.Writer) error {
	env := backupEnvelope{Namespaces: m.Namespaces()}
	for _, ns := range env.Namespaces {
		entries, err := m.store.ListMemoryEntries(ns.Name)
		if err != nil {
			return err
		}
		env.Entries = append(env.Entries, entries...)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(env)
}

// Restore reads a Backup envelope from r and replays it: namespaces are
// registered first (so Store's namespace validation passes), then every
// entry is upserted through Store. Only entries with a TTL are put into the
// front cache; the rest are cached on their first Retrieve.
func (m *Memory) Restore(r io.Reader) error {
	var env backupEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return err
	}

	m.mu.Lock()
	for _, ns := range env.Namespaces {
		m.namespaces[ns.Name] = ns
	}
	m.mu.Unlock()

	for _, entry := range env.Entries {
		if err := m.store.PutMemoryEntry(entry); err != nil {
			return err
		}
		if entry.TTLSeconds > 0 {
			m.cache.Add(cacheKey(entry.Namespace, entry.Key), entry)
		}
	}
	return nil
}
