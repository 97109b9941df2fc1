package webservice

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNotAuthenticated is delivered for RequiresAuth requests when no
	// access token is configured. Nothing is sent in that case.
	ErrNotAuthenticated = errors.New("webservice: not authenticated")
	// ErrCanceled is delivered to requests removed with Transport.Cancel.
	ErrCanceled = errors.New("webservice: request canceled")
	// ErrStopped is delivered to requests submitted after Run returned.
	ErrStopped = errors.New("webservice: transport stopped")
)

// QueryArgs maps query parameter names to values. Values must already be
// percent-encoded; they are written to the URL unchanged.
type QueryArgs map[string]string

// Encode joins the arguments as name=value pairs sorted by name.
func (q QueryArgs) Encode() string {
	if len(q) == 0 {
		return ""
	}
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(q[name])
	}
	return b.String()
}

// Clone returns an independent copy; nil stays nil.
func (q QueryArgs) Clone() QueryArgs {
	if q == nil {
		return nil
	}
	dup := make(QueryArgs, len(q))
	for k, v := range q {
		dup[k] = v
	}
	return dup
}

// Reply is the raw outcome of an executed request. Bodies are not parsed.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports an HTTP status of 400 or above. The matching Reply is
// delivered alongside it.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

// Handler receives the outcome of one request. reply is nil when the request
// never reached the server.
type Handler func(reply *Reply, err error)

// Completion wraps a Handler so that it runs at most once no matter how many
// times the outcome is reported.
type Completion struct {
	once    sync.Once
	handler Handler
}

// NewCompletion wraps h. A nil h yields a completion that discards outcomes.
func NewCompletion(h Handler) *Completion {
	return &Completion{handler: h}
}

// Complete delivers the outcome. It reports whether this call was the one
// that delivered it.
func (c *Completion) Complete(reply *Reply, err error) bool {
	if c == nil {
		return false
	}
	delivered := false
	c.once.Do(func() {
		delivered = true
		if c.handler != nil {
			c.handler(reply, err)
		}
	})
	return delivered
}

// Handle identifies a submitted request.
type Handle struct {
	ID string
}

// Request is a fully formed request handed to the transport.
type Request struct {
	ID          string
	Method      string
	Host        string
	Port        int
	Path        string
	Body        string
	ContentType string
	QueryArgs   QueryArgs

	// Priority requests are drained before normal ones for the same host.
	Priority bool
	// Important requests go to the head of their queue.
	Important bool
	// RequiresAuth attaches the configured access token.
	RequiresAuth bool
	// Refresh bypasses intermediate caches.
	Refresh bool

	Completion *Completion
}

// HostKey identifies the per-host queue a request belongs to.
func (r Request) HostKey() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// URL renders the absolute request URL. Port 443 selects https.
func (r Request) URL() string {
	scheme := "http"
	if r.Port == 443 {
		scheme = "https"
	}
	u := scheme + "://" + r.HostKey() + r.Path
	if raw := r.QueryArgs.Encode(); raw != "" {
		u += "?" + raw
	}
	return u
}
