// Package logtail reads the end of the picard-ws log file for the monitor.
//
// # Reading
//
// Read keeps a ring buffer of maxLines while scanning, so memory stays
// bounded regardless of file size. Lines up to 1 MiB are supported. A
// missing file is not an error; the monitor may start before anything has
// been logged.
//
// # Formatting
//
// The log file holds zerolog JSON lines. Parse decodes one into an Entry and
// Entry.String renders it compactly:
//
//	{"level":"warn","host":"musicbrainz.org:443","message":"request failed"}
//	→ 10:11:12 WRN request failed host=musicbrainz.org:443
//
// Lines that are not JSON are shown as-is.
package logtail
