// Package webservice executes requests for the MusicBrainz and AcoustID
// request builders.
//
// # Overview
//
// The request builders (packages apihelper, musicbrainz and acoustid) never
// talk to the network. They produce a Request value and hand it to a
// Transport, which owns queueing, throttling and I/O, and reports the
// outcome through the request's Completion.
//
// # Queueing
//
// Each host:port has two FIFO queues. Priority requests drain before normal
// ones; Important requests are placed at the head of their queue. One
// request per host is in flight at a time, paced by a token bucket
// (DefaultRateLimits: 1 req/s for musicbrainz.org, 3 req/s for
// api.acoustid.org).
//
// # Failures
//
// A per-host circuit breaker opens after consecutive network or 5xx
// failures. Status codes of 400 and above are delivered as *StatusError
// together with the Reply. Nothing is retried.
//
// # Query arguments
//
// QueryArgs values are percent-encoded by the builders. The transport
// joins them sorted by name and does not encode them again.
package webservice
