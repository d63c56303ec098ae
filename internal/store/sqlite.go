package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hive-mind/coordinator/internal/hiveerr"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is the durable Store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (or reopens) a SQLite-backed store at path, running any
// pending schema migrations.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "create store directory", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "open store", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single writer, WAL readers are fine serialized here
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return hiveerr.Wrap(hiveerr.SchemaIncompatible, "apply schema", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version); err != nil && err != sql.ErrNoRows {
		return hiveerr.Wrap(hiveerr.SchemaIncompatible, "read schema version", err)
	}
	if version > currentSchemaVersion {
		return hiveerr.New(hiveerr.SchemaIncompatible, fmt.Sprintf("on-disk schema v%d is newer than this binary's v%d", version, currentSchemaVersion))
	}
	return nil
}

// currentSchemaVersion is bumped whenever schema.sql gains a new migration
// step; there are none yet beyond the initial v1 layout.
const currentSchemaVersion = 1

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func timeFromMillis(v sql.NullInt64) time.Time {
	if !v.Valid || v.Int64 == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}

// --- Swarms ---

func (s *SQLiteStore) PutSwarm(sw *types.Swarm) error {
	_, err := s.db.Exec(`INSERT INTO swarms (id, name, objective, topology, queen_mode, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, objective=excluded.objective, topology=excluded.topology,
			queen_mode=excluded.queen_mode, status=excluded.status, updated_at=excluded.updated_at`,
		sw.ID, sw.Name, sw.Objective, string(sw.Topology), string(sw.QueenMode), string(sw.Status),
		sw.CreatedAt.UnixMilli(), sw.UpdatedAt.UnixMilli())
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "put swarm", err)
	}
	return nil
}

func (s *SQLiteStore) GetSwarm(id string) (*types.Swarm, error) {
	row := s.db.QueryRow(`SELECT id, name, objective, topology, queen_mode, status, created_at, updated_at FROM swarms WHERE id = ?`, id)
	return scanSwarm(row)
}

func scanSwarm(row *sql.Row) (*types.Swarm, error) {
	var sw types.Swarm
	var topology, mode, status string
	var created, updated int64
	if err := row.Scan(&sw.ID, &sw.Name, &sw.Objective, &topology, &mode, &status, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, hiveerr.New(hiveerr.UnknownEntity, "swarm not found")
		}
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "get swarm", err)
	}
	sw.Topology = types.SwarmTopology(topology)
	sw.QueenMode = types.QueenMode(mode)
	sw.Status = types.SwarmStatus(status)
	sw.CreatedAt = time.UnixMilli(created)
	sw.UpdatedAt = time.UnixMilli(updated)
	return &sw, nil
}

func (s *SQLiteStore) ListSwarms() ([]*types.Swarm, error) {
	rows, err := s.db.Query(`SELECT id, name, objective, topology, queen_mode, status, created_at, updated_at FROM swarms ORDER BY created_at`)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list swarms", err)
	}
	defer rows.Close()

	var out []*types.Swarm
	for rows.Next() {
		var sw types.Swarm
		var topology, mode, status string
		var created, updated int64
		if err := rows.Scan(&sw.ID, &sw.Name, &sw.Objective, &topology, &mode, &status, &created, &updated); err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan swarm", err)
		}
		sw.Topology = types.SwarmTopology(topology)
		sw.QueenMode = types.QueenMode(mode)
		sw.Status = types.SwarmStatus(status)
		sw.CreatedAt = time.UnixMilli(created)
		sw.UpdatedAt = time.UnixMilli(updated)
		out = append(out, &sw)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteSwarm(id string) error {
	_, err := s.db.Exec(`DELETE FROM swarms WHERE id = ?`, id)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "delete swarm", err)
	}
	return nil
}

// --- Agents ---

func (s *SQLiteStore) PutAgent(a *types.Agent) error {
	caps, err := json.Marshal(a.Capabilities.Slice())
	if err != nil {
		return hiveerr.Wrap(hiveerr.InvalidRequest, "marshal capabilities", err)
	}
	_, err = s.db.Exec(`INSERT INTO agents (id, swarm_id, role, type, status, capabilities, current_task_id,
			tasks_completed, in_flight_tasks, last_completed_at, idle_since, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET role=excluded.role, type=excluded.type, status=excluded.status,
			capabilities=excluded.capabilities, current_task_id=excluded.current_task_id,
			tasks_completed=excluded.tasks_completed, in_flight_tasks=excluded.in_flight_tasks,
			last_completed_at=excluded.last_completed_at, idle_since=excluded.idle_since`,
		a.ID, a.SwarmID, string(a.Role), string(a.Type), string(a.Status), string(caps),
		nullableString(a.CurrentTaskID), a.TasksCompleted, a.InFlightTasks,
		nullTime(a.LastCompletedAt), nullTime(a.IdleSince), a.CreatedAt.UnixMilli())
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "put agent", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanAgent(scan func(...interface{}) error) (*types.Agent, error) {
	var a types.Agent
	var role, typ, status, capsJSON string
	var currentTaskID sql.NullString
	var lastCompleted, idleSince sql.NullInt64
	var created int64

	if err := scan(&a.ID, &a.SwarmID, &role, &typ, &status, &capsJSON, &currentTaskID,
		&a.TasksCompleted, &a.InFlightTasks, &lastCompleted, &idleSince, &created); err != nil {
		return nil, err
	}

	a.Role = types.AgentRole(role)
	a.Type = types.AgentType(typ)
	a.Status = types.AgentStatus(status)
	a.CurrentTaskID = currentTaskID.String
	a.LastCompletedAt = timeFromMillis(lastCompleted)
	a.IdleSince = timeFromMillis(idleSince)
	a.CreatedAt = time.UnixMilli(created)

	var tags []string
	if err := json.Unmarshal([]byte(capsJSON), &tags); err != nil {
		return nil, err
	}
	a.Capabilities = types.NewCapabilitySet(tags...)
	return &a, nil
}

func (s *SQLiteStore) GetAgent(id string) (*types.Agent, error) {
	row := s.db.QueryRow(`SELECT id, swarm_id, role, type, status, capabilities, current_task_id,
		tasks_completed, in_flight_tasks, last_completed_at, idle_since, created_at FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "agent not found")
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "get agent", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAgents(swarmID string) ([]*types.Agent, error) {
	var rows *sql.Rows
	var err error
	if swarmID == "" {
		rows, err = s.db.Query(`SELECT id, swarm_id, role, type, status, capabilities, current_task_id,
			tasks_completed, in_flight_tasks, last_completed_at, idle_since, created_at FROM agents ORDER BY created_at`)
	} else {
		rows, err = s.db.Query(`SELECT id, swarm_id, role, type, status, capabilities, current_task_id,
			tasks_completed, in_flight_tasks, last_completed_at, idle_since, created_at FROM agents WHERE swarm_id = ? ORDER BY created_at`, swarmID)
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list agents", err)
	}
	defer rows.Close()

	var out []*types.Agent
	for rows.Next() {
		a, err := scanAgent(rows.Scan)
		if err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan agent", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteAgent(id string) error {
	_, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "delete agent", err)
	}
	return nil
}

// --- Tasks ---

func (s *SQLiteStore) putTaskTx(exec interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}, t *tasks.Task) error {
	caps, err := json.Marshal(t.RequiredCapabilities.Slice())
	if err != nil {
		return hiveerr.Wrap(hiveerr.InvalidRequest, "marshal required capabilities", err)
	}
	deps, err := json.Marshal(t.DependsOn)
	if err != nil {
		return hiveerr.Wrap(hiveerr.InvalidRequest, "marshal dependencies", err)
	}
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return hiveerr.Wrap(hiveerr.InvalidRequest, "marshal metadata", err)
	}

	var started, completed interface{}
	if t.StartedAt != nil {
		started = t.StartedAt.UnixMilli()
	}
	if t.CompletedAt != nil {
		completed = t.CompletedAt.UnixMilli()
	}

	_, err = exec.Exec(`INSERT INTO tasks (id, swarm_id, title, description, priority, status, required_capabilities,
			depends_on, assigned_agent_id, retry_count, max_retries, result, error, metadata,
			created_at, updated_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, description=excluded.description, priority=excluded.priority,
			status=excluded.status, required_capabilities=excluded.required_capabilities, depends_on=excluded.depends_on,
			assigned_agent_id=excluded.assigned_agent_id, retry_count=excluded.retry_count, max_retries=excluded.max_retries,
			result=excluded.result, error=excluded.error, metadata=excluded.metadata, updated_at=excluded.updated_at,
			started_at=excluded.started_at, completed_at=excluded.completed_at`,
		t.ID, t.SwarmID, t.Title, t.Description, t.Priority, string(t.Status), string(caps), string(deps),
		nullableString(t.AssignedAgentID), t.RetryCount, t.MaxRetries, nullableString(t.Result), nullableString(t.Error),
		string(meta), t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli(), started, completed)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "put task", err)
	}
	return nil
}

func (s *SQLiteStore) PutTask(t *tasks.Task) error {
	return s.putTaskTx(s.db, t)
}

func scanTask(scan func(...interface{}) error) (*tasks.Task, error) {
	var t tasks.Task
	var status, capsJSON, depsJSON, metaJSON string
	var assignedAgentID, result, errStr sql.NullString
	var created, updated int64
	var started, completed sql.NullInt64

	if err := scan(&t.ID, &t.SwarmID, &t.Title, &t.Description, &t.Priority, &status, &capsJSON, &depsJSON,
		&assignedAgentID, &t.RetryCount, &t.MaxRetries, &result, &errStr, &metaJSON,
		&created, &updated, &started, &completed); err != nil {
		return nil, err
	}

	t.Status = tasks.Status(status)
	t.AssignedAgentID = assignedAgentID.String
	t.Result = result.String
	t.Error = errStr.String
	t.CreatedAt = time.UnixMilli(created)
	t.UpdatedAt = time.UnixMilli(updated)
	if started.Valid {
		v := time.UnixMilli(started.Int64)
		t.StartedAt = &v
	}
	if completed.Valid {
		v := time.UnixMilli(completed.Int64)
		t.CompletedAt = &v
	}

	var tags []string
	if err := json.Unmarshal([]byte(capsJSON), &tags); err != nil {
		return nil, err
	}
	t.RequiredCapabilities = types.NewCapabilitySet(tags...)

	if err := json.Unmarshal([]byte(depsJSON), &t.DependsOn); err != nil {
		return nil, err
	}
	t.Metadata = map[string]string{}
	if err := json.Unmarshal([]byte(metaJSON), &t.Metadata); err != nil {
		return nil, err
	}
	return &t, nil
}

const taskColumns = `id, swarm_id, title, description, priority, status, required_capabilities, depends_on,
	assigned_agent_id, retry_count, max_retries, result, error, metadata, created_at, updated_at, started_at, completed_at`

func (s *SQLiteStore) GetTask(id string) (*tasks.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "task not found")
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "get task", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTasks(swarmID string) ([]*tasks.Task, error) {
	var rows *sql.Rows
	var err error
	if swarmID == "" {
		rows, err = s.db.Query(`SELECT ` + taskColumns + ` FROM tasks ORDER BY priority DESC, created_at`)
	} else {
		rows, err = s.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE swarm_id = ? ORDER BY priority DESC, created_at`, swarmID)
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list tasks", err)
	}
	defer rows.Close()

	var out []*tasks.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan task", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "delete task", err)
	}
	return nil
}

// AssignTask commits the task and agent rows inside a single transaction so
// a crash never leaves a task "assigned" to an agent that was never marked busy.
func (s *SQLiteStore) AssignTask(task *tasks.Task, agent *types.Agent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "begin assign transaction", err)
	}
	if err := s.putTaskTx(tx, task); err != nil {
		tx.Rollback()
		return err
	}
	caps, _ := json.Marshal(agent.Capabilities.Slice())
	_, err = tx.Exec(`UPDATE agents SET status=?, current_task_id=?, in_flight_tasks=?, idle_since=? WHERE id=?`,
		string(agent.Status), nullableString(agent.CurrentTaskID), agent.InFlightTasks, nullTime(agent.IdleSince), agent.ID)
	_ = caps
	if err != nil {
		tx.Rollback()
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "update agent in assign transaction", err)
	}
	if err := tx.Commit(); err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "commit assign transaction", err)
	}
	return nil
}

// --- Proposals ---

func (s *SQLiteStore) PutProposal(p *types.Proposal) error {
	options, _ := json.Marshal(p.Options)
	votes, _ := json.Marshal(p.Votes)
	eligible, _ := json.Marshal(p.EligibleVoters)

	var closedAt interface{}
	if !p.ClosedAt.IsZero() {
		closedAt = p.ClosedAt.UnixMilli()
	}

	_, err := s.db.Exec(`INSERT INTO proposals (id, swarm_id, topic, options, algorithm, deadline, status, votes,
			eligible_voters, weighted_voter, decision, confidence, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, votes=excluded.votes, decision=excluded.decision,
			confidence=excluded.confidence, closed_at=excluded.closed_at`,
		p.ID, p.SwarmID, p.Topic, string(options), string(p.Algorithm), p.Deadline.UnixMilli(), string(p.Status),
		string(votes), string(eligible), nullableString(p.WeightedVoter), nullableString(p.Decision), p.Confidence,
		p.CreatedAt.UnixMilli(), closedAt)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "put proposal", err)
	}
	return nil
}

func scanProposal(scan func(...interface{}) error) (*types.Proposal, error) {
	var p types.Proposal
	var optionsJSON, algorithm, status, votesJSON, eligibleJSON string
	var weightedVoter, decision sql.NullString
	var deadline, created int64
	var closedAt sql.NullInt64

	if err := scan(&p.ID, &p.SwarmID, &p.Topic, &optionsJSON, &algorithm, &deadline, &status, &votesJSON,
		&eligibleJSON, &weightedVoter, &decision, &p.Confidence, &created, &closedAt); err != nil {
		return nil, err
	}

	p.Algorithm = types.ConsensusAlgorithm(algorithm)
	p.Status = types.ProposalStatus(status)
	p.Deadline = time.UnixMilli(deadline)
	p.CreatedAt = time.UnixMilli(created)
	p.WeightedVoter = weightedVoter.String
	p.Decision = decision.String
	if closedAt.Valid {
		p.ClosedAt = time.UnixMilli(closedAt.Int64)
	}
	if err := json.Unmarshal([]byte(optionsJSON), &p.Options); err != nil {
		return nil, err
	}
	p.Votes = map[string]string{}
	if err := json.Unmarshal([]byte(votesJSON), &p.Votes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(eligibleJSON), &p.EligibleVoters); err != nil {
		return nil, err
	}
	return &p, nil
}

const proposalColumns = `id, swarm_id, topic, options, algorithm, deadline, status, votes, eligible_voters,
	weighted_voter, decision, confidence, created_at, closed_at`

func (s *SQLiteStore) GetProposal(id string) (*types.Proposal, error) {
	row := s.db.QueryRow(`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	p, err := scanProposal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "proposal not found")
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "get proposal", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProposals(swarmID string) ([]*types.Proposal, error) {
	rows, err := s.db.Query(`SELECT `+proposalColumns+` FROM proposals WHERE swarm_id = ? ORDER BY created_at`, swarmID)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list proposals", err)
	}
	defer rows.Close()

	var out []*types.Proposal
	for rows.Next() {
		p, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan proposal", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// --- Memory entries ---

func (s *SQLiteStore) PutMemoryEntry(e *types.MemoryEntry) error {
	var expiresAt interface{}
	if !e.ExpiresAt.IsZero() {
		expiresAt = e.ExpiresAt.UnixMilli()
	}
	var lastAccess interface{}
	if !e.LastAccessAt.IsZero() {
		lastAccess = e.LastAccessAt.UnixMilli()
	}
	_, err := s.db.Exec(`INSERT INTO memory_entries (namespace, key, value, ttl_seconds, created_at, expires_at,
			access_count, last_access_at, compressed, original_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value=excluded.value, ttl_seconds=excluded.ttl_seconds,
			expires_at=excluded.expires_at, access_count=excluded.access_count, last_access_at=excluded.last_access_at,
			compressed=excluded.compressed, original_length=excluded.original_length`,
		e.Namespace, e.Key, e.Value, e.TTLSeconds, e.CreatedAt.UnixMilli(), expiresAt,
		e.AccessCount, lastAccess, e.Compressed, e.OriginalLen)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "put memory entry", err)
	}
	return nil
}

func scanMemoryEntry(scan func(...interface{}) error) (*types.MemoryEntry, error) {
	var e types.MemoryEntry
	var created int64
	var expiresAt, lastAccess sql.NullInt64
	var compressed int

	if err := scan(&e.Namespace, &e.Key, &e.Value, &e.TTLSeconds, &created, &expiresAt,
		&e.AccessCount, &lastAccess, &compressed, &e.OriginalLen); err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(created)
	if expiresAt.Valid {
		e.ExpiresAt = time.UnixMilli(expiresAt.Int64)
	}
	if lastAccess.Valid {
		e.LastAccessAt = time.UnixMilli(lastAccess.Int64)
	}
	e.Compressed = compressed != 0
	return &e, nil
}

const memoryColumns = `namespace, key, value, ttl_seconds, created_at, expires_at, access_count, last_access_at, compressed, original_length`

func (s *SQLiteStore) GetMemoryEntry(namespace, key string) (*types.MemoryEntry, error) {
	row := s.db.QueryRow(`SELECT `+memoryColumns+` FROM memory_entries WHERE namespace = ? AND key = ?`, namespace, key)
	e, err := scanMemoryEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, hiveerr.New(hiveerr.UnknownEntity, "memory entry not found")
	}
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "get memory entry", err)
	}
	return e, nil
}

func (s *SQLiteStore) DeleteMemoryEntry(namespace, key string) error {
	_, err := s.db.Exec(`DELETE FROM memory_entries WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return hiveerr.Wrap(hiveerr.StoreUnavailable, "delete memory entry", err)
	}
	return nil
}

func (s *SQLiteStore) ListMemoryEntries(namespace string) ([]*types.MemoryEntry, error) {
	rows, err := s.db.Query(`SELECT `+memoryColumns+` FROM memory_entries WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list memory entries", err)
	}
	defer rows.Close()

	var out []*types.MemoryEntry
	for rows.Next() {
		e, err := scanMemoryEntry(rows.Scan)
		if err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan memory entry", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLiteStore) ExpiredMemoryEntries(now time.Time) ([]*types.MemoryEntry, error) {
	rows, err := s.db.Query(`SELECT `+memoryColumns+` FROM memory_entries WHERE expires_at IS NOT NULL AND expires_at < ?`, now.UnixMilli())
	if err != nil {
		return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "list expired memory entries", err)
	}
	defer rows.Close()

	var out []*types.MemoryEntry
	for rows.Next() {
		e, err := scanMemoryEntry(rows.Scan)
		if err != nil {
			return nil, hiveerr.Wrap(hiveerr.StoreUnavailable, "scan memory entry", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLiteStore) Stats() (Stats, error) {
	var st Stats
	rows := []struct {
		table string
		dst   *int
	}{
		{"swarms", &st.Swarms},
		{"agents", &st.Agents},
		{"tasks", &st.Tasks},
		{"proposals", &st.Proposals},
		{"memory_entries", &st.MemoryKeys},
	}
	for _, r := range rows {
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + r.table).Scan(r.dst); err != nil {
			return Stats{}, hiveerr.Wrap(hiveerr.StoreUnavailable, "count "+r.table, err)
		}
	}
	return st, nil
}
