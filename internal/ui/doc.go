// Package ui renders a live request monitor with Bubble Tea.
//
// # Overview
//
// The monitor shows every request the transport knows about: queued,
// running and recently finished. It reads state.Store on each tick and
// never talks to the transport directly, except to cancel a queued request.
//
// # Layout
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ picard-ws  queued 1  running 0  done 4  failed 1  filter: All│  header
//	├──────────────────────────────────────────────────────────────┤
//	│ ID       METHOD HOST               PATH            FL STATE  │  table
//	│ 3f2a…    GET    musicbrainz.org    /ws/2/release/… PI done   │
//	├──────────────────────────────────────────────────────────────┤
//	│ e Quit • h/? Toggle help • f Cycle filter • x Cancel         │  footer
//	└──────────────────────────────────────────────────────────────┘
//
// Rows are newest first. FL shows P for priority and I for important.
//
// # Keys
//
//   - j/k, arrows: move the selection
//   - g/G: jump to top or bottom
//   - f: cycle All, Active and Failed filters
//   - x: cancel the selected request if it is still queued
//   - T: cycle themes
//   - l: toggle the log pane, which tails Options.LogPath through logtail
//   - h/?: help overlay; any key closes it
//   - e, Ctrl+C: quit
//
// Theme and filter are saved through the prefs package when they change.
// The program also exits when Options.Context is cancelled.
package ui
