package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/SCuellar21/picard/internal/webservice"
)

// Counts tallies requests by state.
type Counts struct {
	Queued   int
	Running  int
	Done     int
	Failed   int
	Canceled int
}

// Active is the number of requests still queued or running.
func (c Counts) Active() int {
	return c.Queued + c.Running
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Requests    []webservice.RequestInfo
	Counts      Counts
	LastUpdated time.Time
	// LastError is the most recent failed completion reported by the caller.
	LastError error
	Failures  int
}

// Idle reports whether the transport had nothing in flight at the last update.
func (s Snapshot) Idle() bool {
	return !s.LastUpdated.IsZero() && s.Counts.Active() == 0
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the request list and recomputes the counts. Reported
// failures are kept.
func (s *Store) Update(requests []webservice.RequestInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Requests = cloneRequests(requests)
	s.snapshot.Counts = count(requests)
	s.snapshot.LastUpdated = time.Now()
}

// RecordFailure remembers a failed completion for display.
func (s *Store) RecordFailure(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	s.snapshot.Failures++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Requests = cloneRequests(s.snapshot.Requests)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func count(requests []webservice.RequestInfo) Counts {
	var c Counts
	for _, r := range requests {
		switch r.State {
		case webservice.StateQueued:
			c.Queued++
		case webservice.StateRunning:
			c.Running++
		case webservice.StateDone:
			c.Done++
		case webservice.StateFailed:
			c.Failed++
		case webservice.StateCanceled:
			c.Canceled++
		}
	}
	return c
}

func cloneRequests(items []webservice.RequestInfo) []webservice.RequestInfo {
	if len(items) == 0 {
		return nil
	}
	dup := make([]webservice.RequestInfo, len(items))
	copy(dup, items)
	return dup
}
