package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/SCuellar21/picard/internal/config"
	"github.com/SCuellar21/picard/internal/state"
	"github.com/SCuellar21/picard/internal/webservice"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type fakeServer struct {
	mu   sync.Mutex
	seen []seenRequest
	srv  *httptest.Server
}

func newFakeServer(t *testing.T, status int, contentType, body string) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		fs.mu.Lock()
		fs.seen = append(fs.seen, seenRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   buf.String(),
		})
		fs.mu.Unlock()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) requests() []seenRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]seenRequest, len(fs.seen))
	copy(out, fs.seen)
	return out
}

func writeConfig(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvFileVar, "")
	t.Setenv(config.EnvAcoustIDKey, "")
	t.Setenv(config.EnvOAuthToken, "")

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	content := fmt.Sprintf(`
server_host = %q
server_port = %s
acoustid_host = %q
acoustid_port = %s
acoustid_apikey = "user-key"
oauth_access_token = "tok"

[log]
level = "error"
`, u.Hostname(), u.Port(), u.Hostname(), u.Port())
	path := filepath.Join(t.TempDir(), "picard.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runApp(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := Run(ctx, Options{
		ConfigPath: configPath,
		Args:       args,
		Stdout:     &stdout,
		Stderr:     &stderr,
		Transport:  &webservice.Options{RateLimits: map[string]rate.Limit{}},
	})
	return stdout.String(), err
}

func TestRun_ReleaseLookupPrintsJSON(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, "application/json", `{"id":"r1","title":"Help!"}`)
	cfgPath := writeConfig(t, fs.srv)

	out, err := runApp(t, cfgPath, "release", "r1", "labels", "media")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "== release r1 labels media (HTTP 200)") {
		t.Fatalf("output missing header:\n%s", out)
	}
	if !strings.Contains(out, `"title": "Help!"`) {
		t.Fatalf("output not pretty-printed:\n%s", out)
	}

	reqs := fs.requests()
	if len(reqs) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(reqs))
	}
	if reqs[0].Path != "/ws/2/release/r1" || reqs[0].Query != "inc=labels+media" {
		t.Fatalf("request = %s?%s, want /ws/2/release/r1?inc=labels+media", reqs[0].Path, reqs[0].Query)
	}
	if reqs[0].Auth != "" {
		t.Fatalf("lookup sent Authorization %q, want none", reqs[0].Auth)
	}
}

func TestRun_CollectionAddUsesBearerToken(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, "application/xml", `<metadata/>`)
	cfgPath := writeConfig(t, fs.srv)

	out, err := runApp(t, cfgPath, "collection-add", "c1", "r1", "r2")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "<metadata/>") {
		t.Fatalf("output missing body:\n%s", out)
	}
	reqs := fs.requests()
	if len(reqs) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(reqs))
	}
	got := reqs[0]
	if got.Method != http.MethodPut || got.Path != "/ws/2/collection/c1/releases/r1;r2" {
		t.Fatalf("request = %s %s, want PUT /ws/2/collection/c1/releases/r1;r2", got.Method, got.Path)
	}
	if got.Auth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", got.Auth)
	}
	if !strings.HasPrefix(got.Query, "client=MusicBrainz%20Picard-") {
		t.Fatalf("query = %q, want client argument", got.Query)
	}
}

func TestRun_FingerprintSubmitPostsForm(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, "application/json", `{"status":"ok"}`)
	cfgPath := writeConfig(t, fs.srv)

	if _, err := runApp(t, cfgPath, "fp-submit", "AQAA:215:m1:p1"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	reqs := fs.requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodPost || reqs[0].Path != "/v2/submit" {
		t.Fatalf("requests = %+v, want one POST /v2/submit", reqs)
	}
	for _, want := range []string{"format=json", "user=user-key", "fingerprint.0=AQAA", "duration.0=215", "mbid.0=m1", "puid.0=p1"} {
		if !strings.Contains(reqs[0].Body, want) {
			t.Fatalf("body %q missing %q", reqs[0].Body, want)
		}
	}
}

func TestRun_ServerErrorFails(t *testing.T) {
	fs := newFakeServer(t, http.StatusInternalServerError, "text/plain", "boom")
	cfgPath := writeConfig(t, fs.srv)

	out, err := runApp(t, cfgPath, "disc", "abc")
	if err == nil || !strings.Contains(err.Error(), "1 of 1 requests failed") {
		t.Fatalf("Run error = %v, want failure count", err)
	}
	if !strings.Contains(out, "failed: HTTP 500") || !strings.Contains(out, "boom") {
		t.Fatalf("output = %q, want HTTP 500 and body", out)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, "text/plain", "")
	cfgPath := writeConfig(t, fs.srv)

	tests := [][]string{
		nil,
		{"bogus"},
		{"release"},
		{"rate", "recording-r1"},
		{"collection", "c1", "ten"},
		{"fp-submit", "only:two"},
		{"browse", "genre=rock"},
	}
	for _, args := range tests {
		if _, err := runApp(t, cfgPath, args...); !errors.Is(err, ErrUsage) {
			t.Fatalf("Run(%v) error = %v, want ErrUsage", args, err)
		}
	}
	if n := len(fs.requests()); n != 0 {
		t.Fatalf("server saw %d requests, want 0", n)
	}
}

func TestParseRatings(t *testing.T) {
	got, err := parseRatings([]string{"recording:r1=3", "recording:r2=5"})
	if err != nil {
		t.Fatalf("parseRatings returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ratings = %v, want 2 entries", got)
	}
	if _, err := parseRatings([]string{"recording:r1=x"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("bad rating error = %v, want ErrUsage", err)
	}
}

func TestParseBrowse(t *testing.T) {
	opts, err := parseBrowse([]string{"artist=a1", "type=album,ep", "limit=10", "offset=20"})
	if err != nil {
		t.Fatalf("parseBrowse returned error: %v", err)
	}
	if opts.Artist != "a1" || len(opts.Type) != 2 || opts.Limit != 10 || opts.Offset != 20 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := parseBrowse(nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("empty browse error = %v, want ErrUsage", err)
	}
}

func TestParseSubmissions(t *testing.T) {
	subs, err := parseSubmissions([]string{"fp:100:m1", "fp2:200:m2:p2"})
	if err != nil {
		t.Fatalf("parseSubmissions returned error: %v", err)
	}
	if len(subs) != 2 || subs[0].PUID != "" || subs[1].PUID != "p2" || subs[1].Duration != 200 {
		t.Fatalf("subs = %+v", subs)
	}
}

func TestFormatBody(t *testing.T) {
	jsonReply := &webservice.Reply{Body: []byte(`{"a":1}`)}
	if got := formatBody(jsonReply); got != "{\n  \"a\": 1\n}" {
		t.Fatalf("formatBody(json) = %q", got)
	}
	xmlReply := &webservice.Reply{Body: []byte("  <metadata/>\n")}
	if got := formatBody(xmlReply); got != "<metadata/>" {
		t.Fatalf("formatBody(xml) = %q, want <metadata/>", got)
	}
	broken := &webservice.Reply{Body: []byte(`{"a":`)}
	if got := formatBody(broken); got != `{"a":` {
		t.Fatalf("formatBody(broken) = %q, want raw body", got)
	}
}

type fakeSnapshotter struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSnapshotter) Snapshot() []webservice.RequestInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []webservice.RequestInfo{{ID: "a", State: webservice.StateRunning}}
}

func (f *fakeSnapshotter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartPoller_RefreshesStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &state.Store{}
	src := &fakeSnapshotter{}
	StartPoller(ctx, store, src, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for src.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("poller refreshed %d times, want at least 2", src.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := store.Snapshot()
	if len(snap.Requests) != 1 || snap.Counts.Running != 1 {
		t.Fatalf("snapshot = %+v, want one running request", snap)
	}
}

func TestOpenLogFile_CreatesDirAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "picard", "picard-ws.log")
	for _, line := range []string{"one\n", "two\n"} {
		f, err := openLogFile(path)
		if err != nil {
			t.Fatalf("openLogFile returned error: %v", err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
		f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "one\ntwo\n" {
		t.Fatalf("log content = %q, want both lines", data)
	}
}

func TestPrinterDone_WaitsForCompletions(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, nil)
	h := p.handler("release r1")

	ch := p.done(context.Background(), 2)
	h(&webservice.Reply{StatusCode: 200}, nil)
	select {
	case <-ch:
		t.Fatalf("done closed after 1 of 2 completions")
	case <-time.After(20 * time.Millisecond):
	}
	h(nil, errors.New("boom"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("done not closed after 2 completions")
	}
	if p.failures() != 1 {
		t.Fatalf("failures = %d, want 1", p.failures())
	}
}

func TestPrinterDone_ReleasedByContext(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch := p.done(ctx, 3)
	cancel()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("done still blocked after context cancel")
	}

	// An already-cancelled context never blocks.
	select {
	case <-p.done(ctx, 1):
	case <-time.After(time.Second):
		t.Fatalf("done blocked on a cancelled context")
	}
}
