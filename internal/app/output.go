package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/SCuellar21/picard/internal/state"
	"github.com/SCuellar21/picard/internal/webservice"
)

// printer writes replies as they complete and counts them so Run knows when
// every request has been answered.
type printer struct {
	mu        sync.Mutex
	cond      *sync.Cond
	w         io.Writer
	store     *state.Store
	completed int
	failed    int
}

func newPrinter(w io.Writer, store *state.Store) *printer {
	p := &printer{w: w, store: store}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// handler returns a completion handler that prints under label. It may be
// shared by several requests; each completion is printed and counted.
func (p *printer) handler(label string) webservice.Handler {
	return func(reply *webservice.Reply, err error) {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.completed++
		if err != nil {
			p.failed++
			if p.store != nil {
				p.store.RecordFailure(fmt.Errorf("%s: %w", label, err))
			}
		}
		p.write(label, reply, err)
		p.cond.Broadcast()
	}
}

// write must be called with p.mu held.
func (p *printer) write(label string, reply *webservice.Reply, err error) {
	var status string
	switch {
	case err != nil:
		status = "failed: " + replyError(err)
	case reply != nil:
		status = fmt.Sprintf("HTTP %d", reply.StatusCode)
	default:
		status = "no reply"
	}
	fmt.Fprintf(p.w, "== %s (%s)\n", label, status)
	if reply == nil || len(reply.Body) == 0 {
		return
	}
	fmt.Fprintln(p.w, formatBody(reply))
}

// done returns a channel closed once n completions have been seen or ctx
// is done, whichever comes first.
func (p *printer) done(ctx context.Context, n int) <-chan struct{} {
	ch := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	go func() {
		defer close(ch)
		defer stop()
		p.mu.Lock()
		defer p.mu.Unlock()
		for p.completed < n && ctx.Err() == nil {
			p.cond.Wait()
		}
	}()
	return ch
}

func (p *printer) failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// formatBody pretty-prints JSON replies and returns anything else unchanged.
func formatBody(reply *webservice.Reply) string {
	body := bytes.TrimSpace(reply.Body)
	if !isJSON(reply, body) {
		return string(body)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func isJSON(reply *webservice.Reply, body []byte) bool {
	if reply.Header != nil && strings.Contains(reply.Header.Get("Content-Type"), "json") {
		return true
	}
	return len(body) > 0 && (body[0] == '{' || body[0] == '[')
}

// replyError unwraps a StatusError for display; other errors pass through.
func replyError(err error) string {
	var se *webservice.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("HTTP %d", se.StatusCode)
	}
	return err.Error()
}
