package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/SCuellar21/picard/internal/webservice"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	requests := []webservice.RequestInfo{
		{ID: "a", State: webservice.StateQueued},
		{ID: "b", State: webservice.StateRunning},
		{ID: "c", State: webservice.StateDone},
		{ID: "d", State: webservice.StateFailed},
	}

	before := time.Now()
	s.Update(requests)

	snap := s.Snapshot()
	if len(snap.Requests) != 4 || snap.Requests[0].ID != "a" {
		t.Fatalf("snapshot requests = %#v, want 4 items", snap.Requests)
	}
	want := Counts{Queued: 1, Running: 1, Done: 1, Failed: 1}
	if snap.Counts != want {
		t.Fatalf("Counts = %+v, want %+v", snap.Counts, want)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Requests[0].ID = "mutated"
	requests[1].ID = "mutated"
	snap2 := s.Snapshot()
	if snap2.Requests[0].ID != "a" || snap2.Requests[1].ID != "b" {
		t.Fatalf("Snapshot should clone requests; got %q/%q", snap2.Requests[0].ID, snap2.Requests[1].ID)
	}
}

func TestStore_RecordFailureKeepsRequests(t *testing.T) {
	var s Store

	s.Update([]webservice.RequestInfo{{ID: "a", State: webservice.StateDone}})
	origErr := errors.New("boom")
	s.RecordFailure(origErr)
	s.RecordFailure(nil)

	snap := s.Snapshot()
	if len(snap.Requests) != 1 || snap.Requests[0].ID != "a" {
		t.Fatalf("requests changed on failure: %#v", snap.Requests)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if snap.Failures != 1 {
		t.Fatalf("Failures = %d, want 1", snap.Failures)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("cloned error should wrap the original")
	}
}

func TestSnapshot_Idle(t *testing.T) {
	var s Store

	if s.Snapshot().Idle() {
		t.Fatal("Idle() = true before any update, want false")
	}

	s.Update([]webservice.RequestInfo{{State: webservice.StateRunning}})
	if s.Snapshot().Idle() {
		t.Fatal("Idle() = true with a running request, want false")
	}

	s.Update([]webservice.RequestInfo{{State: webservice.StateDone}, {State: webservice.StateCanceled}})
	if !s.Snapshot().Idle() {
		t.Fatal("Idle() = false with only finished requests, want true")
	}

	s.Update(nil)
	if !s.Snapshot().Idle() {
		t.Fatal("Idle() = false with no requests, want true")
	}
}
