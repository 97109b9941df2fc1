package apihelper

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SCuellar21/picard/internal/webservice"
)

// ErrNilSubmitter is returned by New when no transport is supplied.
var ErrNilSubmitter = errors.New("apihelper: nil submitter")

// Submitter is the transport surface the clients depend on.
// *webservice.Transport implements it.
type Submitter interface {
	Submit(req webservice.Request) webservice.Handle
}

// Ensure the concrete transport satisfies Submitter at compile time.
var _ Submitter = (*webservice.Transport)(nil)

// Endpoint identifies one remote service.
type Endpoint struct {
	Host     string
	Port     int
	BasePath string
}

// Options carry the per-request flags and query arguments.
type Options struct {
	Priority     bool
	Important    bool
	RequiresAuth bool
	// Refresh bypasses caches. Only honored by Get.
	Refresh bool
	// QueryArgs values must already be percent-encoded.
	QueryArgs webservice.QueryArgs
}

// WriteOptions returns the defaults for Put and Delete: writes are
// prioritized and need an authenticated user.
func WriteOptions() Options {
	return Options{Priority: true, RequiresAuth: true}
}

// Client anchors every request at one endpoint and forwards it to the
// transport. It holds no mutable state.
type Client struct {
	sub         Submitter
	endpoint    Endpoint
	contentType string
}

// New validates the endpoint and returns a Client. contentType is sent with
// requests that carry a body.
func New(sub Submitter, ep Endpoint, contentType string) (*Client, error) {
	if sub == nil {
		return nil, ErrNilSubmitter
	}
	ep.Host = strings.TrimSpace(ep.Host)
	if ep.Host == "" {
		return nil, fmt.Errorf("apihelper: endpoint host is empty")
	}
	if ep.Port <= 0 || ep.Port > 65535 {
		return nil, fmt.Errorf("apihelper: endpoint port %d out of range", ep.Port)
	}
	if _, err := BuildPath(ep.BasePath, "probe"); err != nil {
		return nil, err
	}
	return &Client{sub: sub, endpoint: ep, contentType: contentType}, nil
}

// Endpoint returns the endpoint the client was built with.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Get submits a read.
func (c *Client) Get(segments []string, handler webservice.Handler, opts Options) (webservice.Handle, error) {
	return c.send(http.MethodGet, segments, "", handler, opts)
}

// Post submits a create with body.
func (c *Client) Post(segments []string, body string, handler webservice.Handler, opts Options) (webservice.Handle, error) {
	opts.Refresh = false
	return c.send(http.MethodPost, segments, body, handler, opts)
}

// Put submits a replace with body. Callers normally start from WriteOptions.
func (c *Client) Put(segments []string, body string, handler webservice.Handler, opts Options) (webservice.Handle, error) {
	opts.Refresh = false
	return c.send(http.MethodPut, segments, body, handler, opts)
}

// Delete submits a deletion using the DELETE verb. Callers normally start
// from WriteOptions.
func (c *Client) Delete(segments []string, handler webservice.Handler, opts Options) (webservice.Handle, error) {
	opts.Refresh = false
	return c.send(http.MethodDelete, segments, "", handler, opts)
}

func (c *Client) send(method string, segments []string, body string, handler webservice.Handler, opts Options) (webservice.Handle, error) {
	path, err := BuildPath(c.endpoint.BasePath, segments...)
	if err != nil {
		return webservice.Handle{}, err
	}
	req := webservice.Request{
		Method:       method,
		Host:         c.endpoint.Host,
		Port:         c.endpoint.Port,
		Path:         path,
		Body:         body,
		QueryArgs:    opts.QueryArgs.Clone(),
		Priority:     opts.Priority,
		Important:    opts.Important,
		RequiresAuth: opts.RequiresAuth,
		Refresh:      opts.Refresh,
		Completion:   webservice.NewCompletion(handler),
	}
	if body != "" {
		req.ContentType = c.contentType
	}
	return c.sub.Submit(req), nil
}
