package musicbrainz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SCuellar21/picard/internal/apihelper"
	"github.com/SCuellar21/picard/internal/webservice"
)

const (
	// BasePath is the root of the MusicBrainz XML web service.
	BasePath = "/ws/2/"
	// ContentType is sent with XML submissions.
	ContentType = "application/xml; charset=UTF-8"
)

var (
	// ErrInvalidInclude reports an empty include name or one containing
	// "+", "/" or whitespace.
	ErrInvalidInclude = errors.New("musicbrainz: invalid include")
	// ErrEmptyID reports a missing entity or collection identifier.
	ErrEmptyID = errors.New("musicbrainz: empty id")
)

// Settings is the configuration the client reads. ServerHost and ServerPort
// are read once at construction; UseAdvancedSearchSyntax on every search.
type Settings interface {
	ServerHost() string
	ServerPort() int
	UseAdvancedSearchSyntax() bool
}

// Client shapes MusicBrainz requests and hands them to the transport.
type Client struct {
	api      *apihelper.Client
	settings Settings
	clientID string // percent-encoded
}

// New builds a Client for the configured MusicBrainz server. clientID is the
// application identifier sent as the client argument on submissions.
func New(sub apihelper.Submitter, settings Settings, clientID string) (*Client, error) {
	if settings == nil {
		return nil, fmt.Errorf("musicbrainz: nil settings")
	}
	api, err := apihelper.New(sub, apihelper.Endpoint{
		Host:     settings.ServerHost(),
		Port:     settings.ServerPort(),
		BasePath: BasePath,
	}, ContentType)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz: %w", err)
	}
	return &Client{
		api:      api,
		settings: settings,
		clientID: apihelper.PercentEncode(clientID),
	}, nil
}

// LookupOptions configure an entity lookup.
type LookupOptions struct {
	// Includes become the inc argument, joined with "+" in the given order.
	Includes []string
	// QueryArgs are extra, already percent-encoded arguments.
	QueryArgs    webservice.QueryArgs
	Priority     bool
	Important    bool
	RequiresAuth bool
	Refresh      bool
}

// GetByID looks up one entity: GET <entityType>/<id>[?inc=a+b].
func (c *Client) GetByID(entityType, id string, handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	if strings.TrimSpace(id) == "" {
		return webservice.Handle{}, fmt.Errorf("%w: %s lookup", ErrEmptyID, entityType)
	}
	args := opts.QueryArgs.Clone()
	if len(opts.Includes) > 0 {
		inc, err := joinIncludes(opts.Includes)
		if err != nil {
			return webservice.Handle{}, err
		}
		if args == nil {
			args = webservice.QueryArgs{}
		}
		args["inc"] = inc
	}
	return c.api.Get([]string{entityType, id}, handler, apihelper.Options{
		Priority:     opts.Priority,
		Important:    opts.Important,
		RequiresAuth: opts.RequiresAuth,
		Refresh:      opts.Refresh,
		QueryArgs:    args,
	})
}

// GetReleaseByID looks up a release.
func (c *Client) GetReleaseByID(id string, handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	return c.GetByID("release", id, handler, opts)
}

// GetRecordingByID looks up a recording (a track in the tagger).
func (c *Client) GetRecordingByID(id string, handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	return c.GetByID("recording", id, handler, opts)
}

// GetReleaseGroupByID looks up a release group.
func (c *Client) GetReleaseGroupByID(id string, handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	return c.GetByID("release-group", id, handler, opts)
}

// GetArtistByID looks up an artist.
func (c *Client) GetArtistByID(id string, handler webservice.Handler, opts LookupOptions) (webservice.Handle, error) {
	return c.GetByID("artist", id, handler, opts)
}

// DiscIDIncludes are always requested by LookupDiscID.
var DiscIDIncludes = []string{"artist-credits", "labels"}

// LookupDiscID resolves a CD TOC disc id to releases. CD stubs are never
// returned.
func (c *Client) LookupDiscID(discID string, handler webservice.Handler, refresh bool) (webservice.Handle, error) {
	return c.GetByID("discid", discID, handler, LookupOptions{
		Includes:  DiscIDIncludes,
		QueryArgs: webservice.QueryArgs{"cdstubs": "no"},
		Priority:  true,
		Important: true,
		Refresh:   refresh,
	})
}

func joinIncludes(includes []string) (string, error) {
	for _, inc := range includes {
		if inc == "" || strings.ContainsAny(inc, "+/ \t\n") {
			return "", fmt.Errorf("%w: %q", ErrInvalidInclude, inc)
		}
	}
	return strings.Join(includes, "+"), nil
}
