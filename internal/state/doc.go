// Package state holds the request monitor's view of the transport.
//
// # Overview
//
// A poller copies Transport.Snapshot into a Store on a fixed interval and the
// monitor UI reads it on its own schedule. Completion handlers report failed
// requests through RecordFailure so the monitor can show the latest error.
//
//	Poller:                        UI:
//	transport.Snapshot()           store.Snapshot()
//	      ↓                              ↓
//	store.Update(requests) ──────→ render table
//
// # Concurrency Model
//
// Store uses a readers-writer lock. Update and RecordFailure take the write
// lock; Snapshot takes the read lock. The lock is held only while copying.
//
// # Copying
//
// Update and Snapshot both clone the request slice, and Snapshot wraps the
// stored error, so neither side can mutate what the other holds.
//
// The zero Store is ready to use. Snapshot returns a zero Snapshot until the
// first Update; Idle is false until then.
package state
