package webservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/metrics"
)

// Credentials supplies the access token for authenticated requests.
type Credentials interface {
	OAuthAccessToken() string
}

const (
	defaultTimeout = 30 * time.Second
	defaultHistory = 200
	maxReplyBytes  = 32 << 20
)

// DefaultRateLimits throttles the public services to their published limits.
func DefaultRateLimits() map[string]rate.Limit {
	return map[string]rate.Limit{
		"musicbrainz.org":  rate.Every(time.Second),
		"api.acoustid.org": rate.Every(time.Second / 3),
	}
}

// Options configure a Transport.
type Options struct {
	HTTPClient  *http.Client
	UserAgent   string
	Credentials Credentials
	// RateLimits is keyed by host name without port. Hosts not listed are
	// not throttled.
	RateLimits map[string]rate.Limit
	// History is the number of finished requests kept for Snapshot.
	History int
}

// Transport queues requests per host and executes them one at a time per
// host, priority queue first. It is safe for concurrent use.
type Transport struct {
	http      *http.Client
	userAgent string
	creds     Credentials
	limits    map[string]rate.Limit
	maxHist   int

	mu      sync.Mutex
	hosts   map[string]*hostQueue
	active  map[string]*entry
	history []RequestInfo
	ctx     context.Context
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// NewTransport builds a Transport. Call Run to start executing requests;
// requests submitted earlier wait in their queues.
func NewTransport(opts Options) *Transport {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	history := opts.History
	if history <= 0 {
		history = defaultHistory
	}
	limits := opts.RateLimits
	if limits == nil {
		limits = DefaultRateLimits()
	}
	return &Transport{
		http:      client,
		userAgent: opts.UserAgent,
		creds:     opts.Credentials,
		limits:    limits,
		maxHist:   history,
		hosts:     make(map[string]*hostQueue),
		active:    make(map[string]*entry),
	}
}

// Submit queues req and returns its handle. The request's completion is
// invoked exactly once, from a transport goroutine.
func (t *Transport) Submit(req Request) Handle {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Completion == nil {
		req.Completion = NewCompletion(nil)
	}
	e := &entry{
		req: req,
		info: RequestInfo{
			ID:        req.ID,
			Method:    req.Method,
			Host:      req.HostKey(),
			Path:      req.Path,
			Priority:  req.Priority,
			Important: req.Important,
			State:     StateQueued,
			Submitted: time.Now(),
		},
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		t.finish(e, nil, ErrStopped)
		return Handle{ID: req.ID}
	}
	q := t.hosts[e.info.Host]
	if q == nil {
		q = newHostQueue(e.info.Host, t.limitFor(req.Host))
		t.hosts[e.info.Host] = q
	}
	q.push(e)
	t.active[req.ID] = e
	metrics.QueueDepth.WithLabelValues(q.key).Set(float64(q.len()))
	if t.running && !q.started {
		t.startWorkerLocked(q)
	}
	t.mu.Unlock()
	q.signal()

	logging.Debug().
		Str("id", req.ID).
		Str("method", req.Method).
		Str("url", req.URL()).
		Bool("priority", req.Priority).
		Bool("important", req.Important).
		Msg("request queued")
	return Handle{ID: req.ID}
}

// Run executes queued requests until ctx is done. Requests still queued at
// that point complete with the context error; later submissions complete
// with ErrStopped.
func (t *Transport) Run(ctx context.Context) error {
	t.mu.Lock()
	if t.running || t.stopped {
		t.mu.Unlock()
		return errors.New("webservice: transport already started")
	}
	t.running = true
	t.ctx = ctx
	for _, q := range t.hosts {
		t.startWorkerLocked(q)
	}
	t.mu.Unlock()

	<-ctx.Done()

	t.mu.Lock()
	t.running = false
	t.stopped = true
	var leftover []*entry
	for _, q := range t.hosts {
		leftover = append(leftover, q.drain()...)
		metrics.QueueDepth.WithLabelValues(q.key).Set(0)
	}
	t.mu.Unlock()

	t.wg.Wait()
	for _, e := range leftover {
		t.finish(e, nil, ctx.Err())
	}
	return nil
}

// Cancel removes a request that is still queued. It reports false when the
// request is already running or finished.
func (t *Transport) Cancel(h Handle) bool {
	t.mu.Lock()
	e, ok := t.active[h.ID]
	if !ok || e.info.State != StateQueued {
		t.mu.Unlock()
		return false
	}
	q := t.hosts[e.info.Host]
	if q == nil || q.remove(h.ID) == nil {
		t.mu.Unlock()
		return false
	}
	metrics.QueueDepth.WithLabelValues(q.key).Set(float64(q.len()))
	t.mu.Unlock()

	t.finish(e, nil, ErrCanceled)
	return true
}

// Snapshot lists active requests in submission order followed by the most
// recent finished ones, oldest first.
func (t *Transport) Snapshot() []RequestInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]RequestInfo, 0, len(t.history)+len(t.active))
	out = append(out, t.history...)
	live := make([]RequestInfo, 0, len(t.active))
	for _, e := range t.active {
		live = append(live, e.info)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Submitted.Before(live[j].Submitted) })
	return append(out, live...)
}

// Pending reports how many requests have not finished yet.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Transport) limitFor(host string) rate.Limit {
	if limit, ok := t.limits[strings.ToLower(host)]; ok {
		return limit
	}
	return rate.Inf
}

func (t *Transport) startWorkerLocked(q *hostQueue) {
	q.started = true
	t.wg.Add(1)
	go t.work(t.ctx, q)
}

func (t *Transport) work(ctx context.Context, q *hostQueue) {
	defer t.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		e := t.next(q)
		if e == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}
		if err := q.limiter.Wait(ctx); err != nil {
			t.finish(e, nil, err)
			return
		}
		t.execute(ctx, q, e)
	}
}

func (t *Transport) next(q *hostQueue) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := q.pop()
	if e == nil {
		return nil
	}
	e.info.State = StateRunning
	e.info.Started = time.Now()
	metrics.QueueDepth.WithLabelValues(q.key).Set(float64(q.len()))
	return e
}

func (t *Transport) execute(ctx context.Context, q *hostQueue, e *entry) {
	req := e.req
	token := ""
	if t.creds != nil {
		token = strings.TrimSpace(t.creds.OAuthAccessToken())
	}
	if req.RequiresAuth && token == "" {
		t.finish(e, nil, ErrNotAuthenticated)
		return
	}

	reply, err := q.breaker.Execute(func() (*Reply, error) {
		return t.do(ctx, req, token)
	})
	metrics.RequestDuration.WithLabelValues(q.key, req.Method).Observe(time.Since(e.info.Started).Seconds())
	t.finish(e, reply, err)
}

func (t *Transport) do(ctx context.Context, r Request, token string) (*Reply, error) {
	body := io.Reader(http.NoBody)
	if r.Method != http.MethodGet && r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, r.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if r.ContentType != "" && r.Method != http.MethodGet {
		httpReq.Header.Set("Content-Type", r.ContentType)
	}
	if r.Refresh {
		httpReq.Header.Set("Cache-Control", "no-cache")
	}
	if r.RequiresAuth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	reply := &Reply{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: data}
	if resp.StatusCode >= http.StatusBadRequest {
		return reply, &StatusError{Method: r.Method, URL: r.URL(), StatusCode: resp.StatusCode}
	}
	return reply, nil
}

func (t *Transport) finish(e *entry, reply *Reply, err error) {
	t.mu.Lock()
	delete(t.active, e.req.ID)
	e.info.Finished = time.Now()
	if reply != nil {
		e.info.StatusCode = reply.StatusCode
	}
	outcome := "ok"
	switch {
	case err == nil:
		e.info.State = StateDone
	case errors.Is(err, ErrCanceled):
		e.info.State = StateCanceled
		outcome = "canceled"
	default:
		e.info.State = StateFailed
		e.info.Err = err.Error()
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr):
			outcome = "http_error"
		case isBreakerRejection(err):
			outcome = "rejected"
		default:
			outcome = "error"
		}
	}
	t.history = append(t.history, e.info)
	if over := len(t.history) - t.maxHist; over > 0 {
		t.history = append([]RequestInfo(nil), t.history[over:]...)
	}
	t.mu.Unlock()

	metrics.RequestsTotal.WithLabelValues(e.info.Host, e.req.Method, outcome).Inc()
	if err != nil && !errors.Is(err, ErrCanceled) {
		logging.Warn().Err(err).Str("id", e.req.ID).Str("method", e.req.Method).Str("path", e.req.Path).Msg("request failed")
	} else {
		logging.Debug().Str("id", e.req.ID).Int("status", e.info.StatusCode).Str("outcome", outcome).Msg("request finished")
	}
	e.req.Completion.Complete(reply, err)
}
