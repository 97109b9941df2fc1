package musicbrainz

import (
	"strconv"
	"strings"

	"github.com/SCuellar21/picard/internal/apihelper"
	"github.com/SCuellar21/picard/internal/webservice"
)

// Field is one name:(value) clause of a structured search.
type Field struct {
	Name  string
	Value string
}

// SearchOptions configure Find. Search selects between the two query modes.
type SearchOptions struct {
	// Limit caps the number of results; zero leaves it to the server.
	Limit int
	// Search selects free-text mode using Query. Otherwise Fields are
	// combined into a structured filter.
	Search bool
	// Query is the free-text query. Used verbatim when the advanced search
	// syntax setting is on, escaped and lower-cased otherwise.
	Query string
	// Fields are escaped, trimmed and lower-cased; empty values are dropped.
	Fields []Field
}

// ReleaseFilter names the structured fields used to search releases.
type ReleaseFilter struct {
	Release string
	Artist  string
	Tracks  string
	Date    string
	Country string
	Barcode string
}

// Fields returns the filter as ordered search fields.
func (f ReleaseFilter) Fields() []Field {
	return []Field{
		{"release", f.Release},
		{"artist", f.Artist},
		{"tracks", f.Tracks},
		{"date", f.Date},
		{"country", f.Country},
		{"barcode", f.Barcode},
	}
}

// RecordingFilter names the structured fields used to search recordings.
type RecordingFilter struct {
	Recording   string
	Artist      string
	Release     string
	TrackNumber string
	Tracks      string
	// Duration is a quantized duration (qdur), length in ms / 2000.
	Duration string
}

// Fields returns the filter as ordered search fields.
func (f RecordingFilter) Fields() []Field {
	return []Field{
		{"recording", f.Recording},
		{"artist", f.Artist},
		{"release", f.Release},
		{"tnum", f.TrackNumber},
		{"tracks", f.Tracks},
		{"qdur", f.Duration},
	}
}

// ArtistFilter names the structured fields used to search artists.
type ArtistFilter struct {
	Artist  string
	Country string
	Type    string
}

// Fields returns the filter as ordered search fields.
func (f ArtistFilter) Fields() []Field {
	return []Field{
		{"artist", f.Artist},
		{"country", f.Country},
		{"type", f.Type},
	}
}

// Find searches entityType. The request is always priority and important,
// unauthenticated and cacheable.
func (c *Client) Find(entityType string, handler webservice.Handler, opts SearchOptions) (webservice.Handle, error) {
	args := c.searchArgs(opts)
	return c.api.Get([]string{entityType}, handler, apihelper.Options{
		Priority:  true,
		Important: true,
		QueryArgs: args,
	})
}

// FindReleases searches releases.
func (c *Client) FindReleases(handler webservice.Handler, opts SearchOptions) (webservice.Handle, error) {
	return c.Find("release", handler, opts)
}

// FindRecordings searches recordings.
func (c *Client) FindRecordings(handler webservice.Handler, opts SearchOptions) (webservice.Handle, error) {
	return c.Find("recording", handler, opts)
}

// FindArtists searches artists.
func (c *Client) FindArtists(handler webservice.Handler, opts SearchOptions) (webservice.Handle, error) {
	return c.Find("artist", handler, opts)
}

func (c *Client) searchArgs(opts SearchOptions) webservice.QueryArgs {
	args := webservice.QueryArgs{}
	if opts.Limit > 0 {
		args["limit"] = apihelper.PercentEncode(strconv.Itoa(opts.Limit))
	}

	var query string
	if opts.Search {
		if c.settings.UseAdvancedSearchSyntax() {
			query = opts.Query
		} else {
			query = normalizeTerm(opts.Query)
			args["dismax"] = "true"
		}
	} else {
		clauses := make([]string, 0, len(opts.Fields))
		for _, f := range opts.Fields {
			value := normalizeTerm(f.Value)
			if value == "" {
				continue
			}
			clauses = append(clauses, f.Name+":("+value+")")
		}
		query = strings.Join(clauses, " ")
	}
	if query != "" {
		args["query"] = apihelper.PercentEncode(query)
	}
	return args
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(apihelper.EscapeLuceneQuery(s)))
}

// DefaultBrowseReleaseIncludes is what the tagger requests when browsing.
var DefaultBrowseReleaseIncludes = []string{"media", "labels"}

// BrowseOptions select the entity releases are browsed by, plus paging.
// Empty fields are omitted.
type BrowseOptions struct {
	Artist       string
	Collection   string
	Label        string
	Recording    string
	ReleaseGroup string
	Track        string
	TrackArtist  string
	// Type and Status filter by release group type and release status.
	Type   []string
	Status []string
	Limit  int
	Offset int
}

func (o BrowseOptions) args() webservice.QueryArgs {
	args := webservice.QueryArgs{}
	set := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			args[name] = apihelper.PercentEncode(value)
		}
	}
	set("artist", o.Artist)
	set("collection", o.Collection)
	set("label", o.Label)
	set("recording", o.Recording)
	set("release-group", o.ReleaseGroup)
	set("track", o.Track)
	set("track_artist", o.TrackArtist)
	set("type", strings.Join(o.Type, "|"))
	set("status", strings.Join(o.Status, "|"))
	if o.Limit > 0 {
		set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		set("offset", strconv.Itoa(o.Offset))
	}
	return args
}

// BrowseReleases lists releases linked to the entity named in opts.
func (c *Client) BrowseReleases(handler webservice.Handler, includes []string, opts BrowseOptions) (webservice.Handle, error) {
	args := opts.args()
	if len(includes) > 0 {
		inc, err := joinIncludes(includes)
		if err != nil {
			return webservice.Handle{}, err
		}
		args["inc"] = inc
	}
	return c.api.Get([]string{"release"}, handler, apihelper.Options{
		Priority:  true,
		Important: true,
		QueryArgs: args,
	})
}
