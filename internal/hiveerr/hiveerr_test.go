package hiveerr

import (
	"errors"
	"testing"
)

func TestNewAndError(t *testing.T) {
	err := New(UnknownEntity, "swarm not found")
	if err.Code != UnknownEntity {
		t.Errorf("Code = %q, want %q", err.Code, UnknownEntity)
	}
	if err.Error() != "unknown_entity: swarm not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(StoreUnavailable, "writing task", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if err.Error() != "store_unavailable: writing task: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(CyclicDependency, "task graph has a cycle")
	if !Is(err, CyclicDependency) {
		t.Error("expected Is(err, CyclicDependency) = true")
	}
	if Is(err, Busy) {
		t.Error("expected Is(err, Busy) = false")
	}
	if Is(errors.New("plain"), CyclicDependency) {
		t.Error("expected Is on a non-hiveerr error to be false")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(New(Busy, "agent busy")) != Busy {
		t.Error("CodeOf should extract Busy")
	}
	if CodeOf(errors.New("unclassified")) != InternalInvariant {
		t.Error("CodeOf should default unclassified errors to InternalInvariant")
	}
}
