// Package wstest provides a recording stand-in for the web-service transport.
package wstest

import (
	"strconv"
	"sync"

	"github.com/SCuellar21/picard/internal/webservice"
)

// Recorder captures submitted requests instead of executing them.
type Recorder struct {
	mu       sync.Mutex
	requests []webservice.Request
}

// Submit records req and returns a sequential handle.
func (r *Recorder) Submit(req webservice.Request) webservice.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = "req-" + strconv.Itoa(len(r.requests)+1)
	}
	r.requests = append(r.requests, req)
	return webservice.Handle{ID: req.ID}
}

// Requests returns a copy of everything submitted so far.
func (r *Recorder) Requests() []webservice.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]webservice.Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Last returns the most recent request and whether there was one.
func (r *Recorder) Last() (webservice.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return webservice.Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}
