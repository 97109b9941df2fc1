// Package acoustid builds requests for the AcoustID fingerprint service.
// Arguments travel as form-encoded POST bodies rather than query strings.
package acoustid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SCuellar21/picard/internal/apihelper"
	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/webservice"
)

const (
	// BasePath is the root of the AcoustID v2 API.
	BasePath = "/v2/"
	// ContentType is sent with every request body.
	ContentType = "application/x-www-form-urlencoded"

	formatXML  = "xml"
	formatJSON = "json"
)

var (
	// ErrMissingAPIKey is returned by SubmitFingerprints when no user API
	// key is configured.
	ErrMissingAPIKey = errors.New("acoustid: missing user api key")
	// ErrNoSubmissions is returned by SubmitFingerprints for an empty batch.
	ErrNoSubmissions = errors.New("acoustid: no submissions")
	// ErrInvalidSubmission reports a submission without a fingerprint, a
	// positive duration or a recording id.
	ErrInvalidSubmission = errors.New("acoustid: invalid submission")
)

// DefaultLookupMeta is requested when LookupOptions.Meta is empty.
var DefaultLookupMeta = []string{"recordings", "releasegroups", "releases", "tracks", "compress", "sources"}

// Settings is the configuration the client reads.
type Settings interface {
	AcoustIDHost() string
	AcoustIDPort() int
	// AcoustIDAPIKey is the user's key, sent as "user" on submissions.
	AcoustIDAPIKey() string
	// AcoustIDClientKey identifies the application, sent as "client".
	AcoustIDClientKey() string
}

// Arg is one form argument. Values are raw; EncodeArgs percent-encodes them.
type Arg struct {
	Name  string
	Value string
}

// Submission is one fingerprint to attach to a recording. PUID is optional.
type Submission struct {
	Fingerprint string
	Duration    int
	RecordingID string
	PUID        string
}

// Client shapes AcoustID requests and hands them to the transport.
type Client struct {
	api           *apihelper.Client
	settings      Settings
	clientVersion string
}

// New builds a Client for the configured AcoustID server.
func New(sub apihelper.Submitter, settings Settings, clientVersion string) (*Client, error) {
	if settings == nil {
		return nil, fmt.Errorf("acoustid: nil settings")
	}
	api, err := apihelper.New(sub, apihelper.Endpoint{
		Host:     settings.AcoustIDHost(),
		Port:     settings.AcoustIDPort(),
		BasePath: BasePath,
	}, ContentType)
	if err != nil {
		return nil, fmt.Errorf("acoustid: %w", err)
	}
	return &Client{api: api, settings: settings, clientVersion: clientVersion}, nil
}

// EncodeArgs renders the form body: client, clientversion and format first,
// then args in order. An empty format means xml. Args named like an injected
// key are dropped.
func (c *Client) EncodeArgs(args []Arg, format string) string {
	if format == "" {
		format = formatXML
	}
	injected := []Arg{
		{"client", c.settings.AcoustIDClientKey()},
		{"clientversion", c.clientVersion},
		{"format", format},
	}
	pairs := make([]string, 0, len(injected)+len(args))
	for _, a := range injected {
		pairs = append(pairs, a.Name+"="+apihelper.PercentEncode(a.Value))
	}
	for _, a := range args {
		switch a.Name {
		case "client", "clientversion", "format":
			continue
		}
		pairs = append(pairs, a.Name+"="+apihelper.PercentEncode(a.Value))
	}
	return strings.Join(pairs, "&")
}

// LookupOptions describe a fingerprint lookup.
type LookupOptions struct {
	Fingerprint string
	// Duration is the track length in seconds.
	Duration int
	// Meta lists the metadata blocks to return; DefaultLookupMeta when empty.
	Meta []string
	// Extra arguments appended after the standard ones.
	Extra []Arg
}

// Lookup resolves a fingerprint. The request is low priority and
// unauthenticated.
func (c *Client) Lookup(handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	meta := opts.Meta
	if len(meta) == 0 {
		meta = DefaultLookupMeta
	}
	args := []Arg{
		{"duration", strconv.Itoa(opts.Duration)},
		{"fingerprint", opts.Fingerprint},
		{"meta", strings.Join(meta, " ")},
	}
	args = append(args, opts.Extra...)
	return c.Query(handler, args)
}

// Query posts raw args to the lookup endpoint.
func (c *Client) Query(handler webservice.Handler, args []Arg) (webservice.Handle, error) {
	body := c.EncodeArgs(args, formatXML)
	return c.api.Post([]string{"lookup"}, body, handler, apihelper.Options{})
}

// SubmitFingerprints sends a batch of fingerprints in one request, indexed
// fingerprint.N, duration.N, mbid.N and puid.N (only when set).
func (c *Client) SubmitFingerprints(submissions []Submission, handler webservice.Handler) (webservice.Handle, error) {
	if len(submissions) == 0 {
		return webservice.Handle{}, ErrNoSubmissions
	}
	user := strings.TrimSpace(c.settings.AcoustIDAPIKey())
	if user == "" {
		return webservice.Handle{}, ErrMissingAPIKey
	}

	args := make([]Arg, 0, 1+4*len(submissions))
	args = append(args, Arg{"user", user})
	for i, s := range submissions {
		if s.Fingerprint == "" || s.Duration <= 0 || strings.TrimSpace(s.RecordingID) == "" {
			return webservice.Handle{}, fmt.Errorf("%w: index %d", ErrInvalidSubmission, i)
		}
		n := strconv.Itoa(i)
		args = append(args,
			Arg{"fingerprint." + n, s.Fingerprint},
			Arg{"duration." + n, strconv.Itoa(s.Duration)},
			Arg{"mbid." + n, s.RecordingID},
		)
		if s.PUID != "" {
			args = append(args, Arg{"puid." + n, s.PUID})
		}
	}
	logging.Debug().Int("fingerprints", len(submissions)).Msg("acoustid submit")

	body := c.EncodeArgs(args, formatJSON)
	return c.api.Post([]string{"submit"}, body, handler, apihelper.Options{Priority: true})
}
