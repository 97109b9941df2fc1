package webservice

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// RequestState tracks a request through the transport.
type RequestState int

const (
	StateQueued RequestState = iota
	StateRunning
	StateDone
	StateFailed
	StateCanceled
)

func (s RequestState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Finished reports whether the request has left the transport.
func (s RequestState) Finished() bool {
	return s == StateDone || s == StateFailed || s == StateCanceled
}

// RequestInfo is a read-only view of a request for monitoring.
type RequestInfo struct {
	ID         string
	Method     string
	Host       string
	Path       string
	Priority   bool
	Important  bool
	State      RequestState
	StatusCode int
	Err        string
	Submitted  time.Time
	Started    time.Time
	Finished   time.Time
}

// Duration is the time spent executing, zero until the request finished.
func (i RequestInfo) Duration() time.Duration {
	if i.Started.IsZero() || i.Finished.IsZero() {
		return 0
	}
	return i.Finished.Sub(i.Started)
}

type entry struct {
	req  Request
	info RequestInfo
}

// hostQueue holds the pending requests for one host:port. All fields except
// wake, limiter and breaker are guarded by Transport.mu.
type hostQueue struct {
	key      string
	priority []*entry
	normal   []*entry
	started  bool

	wake    chan struct{}
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Reply]
}

func newHostQueue(key string, limit rate.Limit) *hostQueue {
	return &hostQueue{
		key:     key,
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker(key),
	}
}

func (q *hostQueue) push(e *entry) {
	target := &q.normal
	if e.req.Priority {
		target = &q.priority
	}
	if e.req.Important {
		*target = append([]*entry{e}, *target...)
	} else {
		*target = append(*target, e)
	}
}

func (q *hostQueue) pop() *entry {
	if len(q.priority) > 0 {
		e := q.priority[0]
		q.priority = q.priority[1:]
		return e
	}
	if len(q.normal) > 0 {
		e := q.normal[0]
		q.normal = q.normal[1:]
		return e
	}
	return nil
}

func (q *hostQueue) remove(id string) *entry {
	for _, list := range []*[]*entry{&q.priority, &q.normal} {
		for i, e := range *list {
			if e.req.ID == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return e
			}
		}
	}
	return nil
}

func (q *hostQueue) drain() []*entry {
	out := append(q.priority, q.normal...)
	q.priority = nil
	q.normal = nil
	return out
}

func (q *hostQueue) len() int {
	return len(q.priority) + len(q.normal)
}

func (q *hostQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
