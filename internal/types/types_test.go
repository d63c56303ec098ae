package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAgentStatusConstants(t *testing.T) {
	statuses := []AgentStatus{StatusIdle, StatusBusy, StatusActive, StatusError, StatusOffline}
	expected := []string{"idle", "busy", "active", "error", "offline"}

	for i, status := range statuses {
		if string(status) != expected[i] {
			t.Errorf("status[%d] = %q, want %q", i, status, expected[i])
		}
	}
}

func TestAgentRoleConstants(t *testing.T) {
	if RoleQueen != "queen" {
		t.Errorf("RoleQueen = %q, want %q", RoleQueen, "queen")
	}
	if RoleWorker != "worker" {
		t.Errorf("RoleWorker = %q, want %q", RoleWorker, "worker")
	}
}

func TestAgentTypeConstants(t *testing.T) {
	bundles := DefaultCapabilityBundles()
	types := []AgentType{
		TypeResearcher, TypeCoder, TypeAnalyst, TypeTester, TypeArchitect,
		TypeReviewer, TypeOptimizer, TypeDocumenter, TypeCoordinator, TypeSpecialist,
	}
	for _, tp := range types {
		if _, ok := bundles[tp]; !ok {
			t.Errorf("DefaultCapabilityBundles missing entry for %q", tp)
		}
	}
}

func TestCapabilitySet(t *testing.T) {
	cs := NewCapabilitySet("code-generation", "debugging")

	if !cs.Has("code-generation") {
		t.Error("expected Has(code-generation) = true")
	}
	if cs.Has("writing") {
		t.Error("expected Has(writing) = false")
	}

	sub := NewCapabilitySet("code-generation")
	if !cs.Superset(sub) {
		t.Error("expected cs to be a superset of sub")
	}

	missing := NewCapabilitySet("code-generation", "writing")
	if cs.Superset(missing) {
		t.Error("expected cs to not be a superset when a tag is missing")
	}

	slice := cs.Slice()
	if len(slice) != 2 {
		t.Errorf("Slice() len = %d, want 2", len(slice))
	}
}

func TestAgentTransitionTo(t *testing.T) {
	a := &Agent{ID: "a1", Status: StatusIdle}

	if err := a.TransitionTo(StatusBusy); err != nil {
		t.Fatalf("idle -> busy: unexpected error: %v", err)
	}
	if a.Status != StatusBusy {
		t.Errorf("Status = %q, want %q", a.Status, StatusBusy)
	}

	if err := a.TransitionTo(StatusOffline); err == nil {
		t.Error("busy -> offline: expected error, got nil")
	}

	a.CurrentTaskID = "task-1"
	if err := a.TransitionTo(StatusIdle); err != nil {
		t.Fatalf("busy -> idle: unexpected error: %v", err)
	}
	if a.CurrentTaskID != "" {
		t.Errorf("CurrentTaskID = %q, want empty after returning to idle", a.CurrentTaskID)
	}
	if a.IdleSince.IsZero() {
		t.Error("expected IdleSince to be set after returning to idle")
	}

	if err := a.TransitionTo(StatusIdle); err != nil {
		t.Errorf("idle -> idle (no-op): unexpected error: %v", err)
	}
}

func TestAgentInvariant(t *testing.T) {
	a := &Agent{ID: "a1", Status: StatusBusy, CurrentTaskID: "task-1"}
	if !a.Invariant() {
		t.Error("expected invariant to hold for busy agent with a current task")
	}

	a.CurrentTaskID = ""
	if a.Invariant() {
		t.Error("expected invariant to fail for busy agent with no current task")
	}

	idle := &Agent{ID: "a2", Status: StatusIdle}
	if !idle.Invariant() {
		t.Error("expected invariant to hold for idle agent with no current task")
	}
}

func TestSwarmCanTransitionTopology(t *testing.T) {
	s := &Swarm{Status: SwarmInitializing}
	if !s.CanTransitionTopology() {
		t.Error("expected topology change allowed while initializing")
	}

	s.Status = SwarmActive
	if s.CanTransitionTopology() {
		t.Error("expected topology change disallowed once active")
	}
}

func TestAgentJSONSerialization(t *testing.T) {
	agent := &Agent{
		ID:            "agent-001",
		SwarmID:       "swarm-001",
		Role:          RoleWorker,
		Type:          TypeCoder,
		Status:        StatusBusy,
		Capabilities:  NewCapabilitySet("implementation", "debugging"),
		CurrentTaskID: "task-42",
		CreatedAt:     time.Now(),
	}

	data, err := json.Marshal(agent)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}

	var decoded Agent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}

	if decoded.ID != agent.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, agent.ID)
	}
	if decoded.Role != agent.Role {
		t.Errorf("Role = %v, want %v", decoded.Role, agent.Role)
	}
	if decoded.Status != agent.Status {
		t.Errorf("Status = %v, want %v", decoded.Status, agent.Status)
	}
	if !decoded.Capabilities.Has("implementation") {
		t.Error("expected decoded capabilities to retain implementation tag")
	}
}

func TestDefaultKeywordTableCoversAllTypes(t *testing.T) {
	keywords := DefaultKeywordTable()
	bundles := DefaultCapabilityBundles()

	for tp := range bundles {
		if len(keywords[tp]) == 0 {
			t.Errorf("DefaultKeywordTable missing keywords for %q", tp)
		}
	}
}
