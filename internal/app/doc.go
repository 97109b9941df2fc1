// Package app is the composition root for picard-ws.
//
// Run loads configuration, builds the HTTP transport and the MusicBrainz and
// AcoustID clients, dispatches one command and waits until every reply has
// been printed. Commands that fan out, such as adding more than 400 releases
// to a collection, wait for all of their requests.
//
// # Startup
//
//  1. Load ~/.config/picard/picard.toml plus secrets from the environment
//  2. Initialize zerolog (stderr, or the log file in monitor mode)
//  3. Start the transport loop and, when configured, the metrics server
//  4. Dispatch the command and wait for completions
//
// # Monitor mode
//
// With Options.Monitor set the command is dispatched and the request monitor
// takes over the terminal. A poller copies the transport's request list into
// a state.Store; the UI reads snapshots from the store on its own tick. Logs
// are written as JSON to the configured log file so the monitor's log pane
// can tail them.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()
//	       ├─────> webservice.NewTransport()
//	       ├─────> musicbrainz.New() / acoustid.New()
//	       ├─────> dispatcher.dispatch()
//	       └─────> runMonitor()
//	                ├─> StartPoller()   transport.Snapshot() -> store.Update()
//	                └─> ui.Run()        blocks until quit
//
// # Errors
//
// Configuration and usage errors are returned before any request is sent.
// Per-request failures are printed as they arrive and counted; Run returns
// an error naming how many failed.
package app
