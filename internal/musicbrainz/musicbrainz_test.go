package musicbrainz

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/SCuellar21/picard/internal/webservice"
	"github.com/SCuellar21/picard/internal/webservice/wstest"
)

type fakeSettings struct {
	host     string
	port     int
	advanced bool
}

func (s *fakeSettings) ServerHost() string            { return s.host }
func (s *fakeSettings) ServerPort() int               { return s.port }
func (s *fakeSettings) UseAdvancedSearchSyntax() bool { return s.advanced }

func newTestClient(t *testing.T) (*Client, *wstest.Recorder, *fakeSettings) {
	t.Helper()
	rec := &wstest.Recorder{}
	settings := &fakeSettings{host: "musicbrainz.org", port: 443}
	c, err := New(rec, settings, "MusicBrainz Picard-2.1.0")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c, rec, settings
}

func lastRequest(t *testing.T, rec *wstest.Recorder) webservice.Request {
	t.Helper()
	req, ok := rec.Last()
	if !ok {
		t.Fatalf("no request submitted")
	}
	return req
}

func TestNew_RejectsBadSettings(t *testing.T) {
	rec := &wstest.Recorder{}
	if _, err := New(rec, nil, "x"); err == nil {
		t.Fatalf("New(nil settings) returned nil error")
	}
	if _, err := New(rec, &fakeSettings{host: "", port: 443}, "x"); err == nil {
		t.Fatalf("New with empty host returned nil error")
	}
}

func TestGetByID_JoinsIncludes(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.GetByID("release", "abc", nil, LookupOptions{Includes: []string{"labels", "media"}}); err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Method != http.MethodGet || req.Path != "/ws/2/release/abc" {
		t.Fatalf("request = %s %s, want GET /ws/2/release/abc", req.Method, req.Path)
	}
	if got := req.QueryArgs["inc"]; got != "labels+media" {
		t.Fatalf("inc = %q, want %q", got, "labels+media")
	}
}

func TestGetByID_NoIncludesNoArgs(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.GetRecordingByID("r1", nil, LookupOptions{Refresh: true}); err != nil {
		t.Fatalf("GetRecordingByID returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Path != "/ws/2/recording/r1" {
		t.Fatalf("path = %q, want /ws/2/recording/r1", req.Path)
	}
	if _, ok := req.QueryArgs["inc"]; ok {
		t.Fatalf("inc present without includes: %v", req.QueryArgs)
	}
	if !req.Refresh {
		t.Fatalf("refresh flag lost")
	}
}

func TestGetByID_Errors(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.GetReleaseByID(" ", nil, LookupOptions{}); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("empty id error = %v, want ErrEmptyID", err)
	}
	if _, err := c.GetArtistByID("a1", nil, LookupOptions{Includes: []string{"aliases", "a+b"}}); !errors.Is(err, ErrInvalidInclude) {
		t.Fatalf("bad include error = %v, want ErrInvalidInclude", err)
	}
	if _, err := c.GetReleaseGroupByID("rg/1", nil, LookupOptions{}); err == nil {
		t.Fatalf("id with slash returned nil error")
	}
	if n := len(rec.Requests()); n != 0 {
		t.Fatalf("requests = %d, want 0", n)
	}
}

func TestLookupDiscID(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.LookupDiscID("Wn8eRBtfLDfM0qjYPdxrz.Zjs_U-", nil, false); err != nil {
		t.Fatalf("LookupDiscID returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Path != "/ws/2/discid/Wn8eRBtfLDfM0qjYPdxrz.Zjs_U-" {
		t.Fatalf("path = %q", req.Path)
	}
	if req.QueryArgs["inc"] != "artist-credits+labels" || req.QueryArgs["cdstubs"] != "no" {
		t.Fatalf("args = %v, want inc=artist-credits+labels cdstubs=no", req.QueryArgs)
	}
	if !req.Priority || !req.Important {
		t.Fatalf("disc lookup should be priority and important")
	}
}

func TestFind_FreeTextDismax(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.Find("artist", nil, SearchOptions{Search: true, Query: "Beatles!"}); err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Path != "/ws/2/artist" {
		t.Fatalf("path = %q, want /ws/2/artist", req.Path)
	}
	if got := req.QueryArgs["query"]; got != "beatles%5C%21" {
		t.Fatalf("query = %q, want %q", got, "beatles%5C%21")
	}
	if got := req.QueryArgs["dismax"]; got != "true" {
		t.Fatalf("dismax = %q, want true", got)
	}
	if !req.Priority || !req.Important || req.RequiresAuth || req.Refresh {
		t.Fatalf("flags = %+v, want priority+important only", req)
	}
}

func TestFind_AdvancedSyntaxReadAtCallTime(t *testing.T) {
	c, rec, settings := newTestClient(t)
	settings.advanced = true

	if _, err := c.FindReleases(nil, SearchOptions{Search: true, Query: `artist:"AC/DC"`, Limit: 25}); err != nil {
		t.Fatalf("FindReleases returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if got := req.QueryArgs["query"]; got != "artist%3A%22AC%2FDC%22" {
		t.Fatalf("query = %q, want verbatim query percent-encoded", got)
	}
	if _, ok := req.QueryArgs["dismax"]; ok {
		t.Fatalf("dismax set in advanced mode")
	}
	if got := req.QueryArgs["limit"]; got != "25" {
		t.Fatalf("limit = %q, want 25", got)
	}
}

func TestFind_FilterMode(t *testing.T) {
	c, rec, _ := newTestClient(t)

	filter := RecordingFilter{Recording: " Help! ", Artist: "The Beatles", TrackNumber: ""}
	if _, err := c.FindRecordings(nil, SearchOptions{Fields: filter.Fields()}); err != nil {
		t.Fatalf("FindRecordings returned error: %v", err)
	}
	req := lastRequest(t, rec)
	want := "recording%3A%28help%5C%21%29%20artist%3A%28the%20beatles%29"
	if got := req.QueryArgs["query"]; got != want {
		t.Fatalf("query = %q, want %q", got, want)
	}
	if _, ok := req.QueryArgs["dismax"]; ok {
		t.Fatalf("dismax set in filter mode")
	}
	if _, ok := req.QueryArgs["limit"]; ok {
		t.Fatalf("limit set without Limit")
	}
}

func TestFind_EmptyFilterOmitsQuery(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.FindArtists(nil, SearchOptions{Fields: ArtistFilter{}.Fields()}); err != nil {
		t.Fatalf("FindArtists returned error: %v", err)
	}
	if args := lastRequest(t, rec).QueryArgs; len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
}

func TestBrowseReleases(t *testing.T) {
	c, rec, _ := newTestClient(t)

	opts := BrowseOptions{
		Artist: "a-1",
		Type:   []string{"album", "ep"},
		Status: []string{"official"},
		Limit:  50,
	}
	if _, err := c.BrowseReleases(nil, DefaultBrowseReleaseIncludes, opts); err != nil {
		t.Fatalf("BrowseReleases returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Path != "/ws/2/release" {
		t.Fatalf("path = %q, want /ws/2/release", req.Path)
	}
	want := "artist=a-1&inc=media+labels&limit=50&status=official&type=album%7Cep"
	if got := req.QueryArgs.Encode(); got != want {
		t.Fatalf("query = %q, want %q", got, want)
	}
}

func TestSubmitRatings(t *testing.T) {
	c, rec, _ := newTestClient(t)

	ratings := map[EntityKey]int{
		{Type: "recording", ID: "r2"}: 5,
		{Type: "recording", ID: "r1"}: 3,
		{Type: "release", ID: "x"}:    4,
	}
	if _, err := c.SubmitRatings(ratings, nil); err != nil {
		t.Fatalf("SubmitRatings returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Method != http.MethodPost || req.Path != "/ws/2/rating" {
		t.Fatalf("request = %s %s, want POST /ws/2/rating", req.Method, req.Path)
	}
	if !req.Priority || !req.RequiresAuth {
		t.Fatalf("rating submission should be priority and authenticated")
	}
	if got := req.QueryArgs["client"]; got != "MusicBrainz%20Picard-2.1.0" {
		t.Fatalf("client = %q", got)
	}
	if req.ContentType != ContentType {
		t.Fatalf("content type = %q, want %q", req.ContentType, ContentType)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<metadata xmlns="http://musicbrainz.org/ns/mmd-2.0#"><recording-list>` +
		`<recording id="r1"><user-rating>60</user-rating></recording>` +
		`<recording id="r2"><user-rating>100</user-rating></recording>` +
		`</recording-list></metadata>`
	if req.Body != want {
		t.Fatalf("body = %q, want %q", req.Body, want)
	}
	if strings.Contains(req.Body, `"x"`) {
		t.Fatalf("non-recording rating leaked into body")
	}
}

func TestSubmitRatings_RejectsOutOfRange(t *testing.T) {
	c, rec, _ := newTestClient(t)

	for _, rating := range []int{-1, 6} {
		_, err := c.SubmitRatings(map[EntityKey]int{{Type: "recording", ID: "r1"}: rating}, nil)
		if !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d error = %v, want ErrInvalidRating", rating, err)
		}
	}
	if n := len(rec.Requests()); n != 0 {
		t.Fatalf("requests = %d, want 0", n)
	}
}

func TestGetCollection(t *testing.T) {
	c, rec, _ := newTestClient(t)

	if _, err := c.GetCollection("c1", nil, 25, 50); err != nil {
		t.Fatalf("GetCollection returned error: %v", err)
	}
	req := lastRequest(t, rec)
	if req.Path != "/ws/2/collection/c1/releases" {
		t.Fatalf("path = %q, want /ws/2/collection/c1/releases", req.Path)
	}
	if got := strings.Count(strings.TrimPrefix(req.Path, BasePath), "/"); got != 2 {
		t.Fatalf("path has %d separators, want 2 (three segments)", got)
	}
	want := "inc=releases+artist-credits+media&limit=25&offset=50"
	if got := req.QueryArgs.Encode(); got != want {
		t.Fatalf("query = %q, want %q", got, want)
	}
	if !req.RequiresAuth || !req.Priority || !req.Important {
		t.Fatalf("collection read should be authenticated, priority and important")
	}

	if _, err := c.GetCollectionList(nil); err != nil {
		t.Fatalf("GetCollectionList returned error: %v", err)
	}
	req = lastRequest(t, rec)
	if req.Path != "/ws/2/collection" || len(req.QueryArgs) != 0 {
		t.Fatalf("list request = %s %v, want /ws/2/collection without args", req.Path, req.QueryArgs)
	}
}

func TestChunk(t *testing.T) {
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = "r" + strconv.Itoa(i)
	}
	chunks := Chunk(ids, MaxCollectionBatch)
	sizes := []int{}
	var flat []string
	for _, c := range chunks {
		sizes = append(sizes, len(c))
		flat = append(flat, c...)
	}
	if len(sizes) != 3 || sizes[0] != 400 || sizes[1] != 400 || sizes[2] != 200 {
		t.Fatalf("chunk sizes = %v, want [400 400 200]", sizes)
	}
	if len(flat) != len(ids) {
		t.Fatalf("chunks hold %d ids, want %d", len(flat), len(ids))
	}
	seen := make(map[string]bool, len(flat))
	for i, id := range flat {
		if seen[id] {
			t.Fatalf("id %q appears twice", id)
		}
		seen[id] = true
		if id != ids[i] {
			t.Fatalf("chunked id %d = %q, want %q", i, id, ids[i])
		}
	}

	if got := Chunk(nil, 400); len(got) != 0 {
		t.Fatalf("Chunk(nil) = %v, want empty", got)
	}
	if got := Chunk([]string{"a", "b", "c"}, 400); len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("Chunk(3) = %v, want one chunk of 3", got)
	}
}

func TestPutToCollection_Batches(t *testing.T) {
	c, rec, _ := newTestClient(t)

	ids := make([]string, 401)
	for i := range ids {
		ids[i] = "rel"
	}
	ids[400] = "last"
	calls := 0
	handles, err := c.PutToCollection("c1", ids, func(*webservice.Reply, error) { calls++ })
	if err != nil {
		t.Fatalf("PutToCollection returned error: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("handles = %d, want 2", len(handles))
	}
	reqs := rec.Requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	for _, req := range reqs {
		if req.Method != http.MethodPut || req.Body != "" || !req.Priority || !req.RequiresAuth {
			t.Fatalf("request = %+v, want empty authenticated priority PUT", req)
		}
		if req.QueryArgs["client"] == "" {
			t.Fatalf("client argument missing")
		}
	}
	if got := reqs[1].Path; got != "/ws/2/collection/c1/releases/last" {
		t.Fatalf("second path = %q", got)
	}
	if got := strings.Count(reqs[0].Path, ";"); got != 399 {
		t.Fatalf("first batch separators = %d, want 399", got)
	}

	for _, req := range reqs {
		req.Completion.Complete(&webservice.Reply{StatusCode: 200}, nil)
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want one per batch", calls)
	}
}

func TestDeleteFromCollection(t *testing.T) {
	c, rec, _ := newTestClient(t)

	handles, err := c.DeleteFromCollection("c1", []string{"r1", "r2"}, nil)
	if err != nil {
		t.Fatalf("DeleteFromCollection returned error: %v", err)
	}
	if len(handles) != 1 {
		t.Fatalf("handles = %d, want 1", len(handles))
	}
	req := lastRequest(t, rec)
	if req.Method != http.MethodDelete || req.Path != "/ws/2/collection/c1/releases/r1;r2" {
		t.Fatalf("request = %s %s, want DELETE /ws/2/collection/c1/releases/r1;r2", req.Method, req.Path)
	}
}

func TestCollectionMutations_EdgeCases(t *testing.T) {
	c, rec, _ := newTestClient(t)

	handles, err := c.PutToCollection("c1", nil, nil)
	if err != nil || len(handles) != 0 {
		t.Fatalf("empty put = %v, %v; want no handles, nil error", handles, err)
	}
	if _, err := c.PutToCollection("", []string{"r1"}, nil); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("empty collection error = %v, want ErrEmptyID", err)
	}
	if _, err := c.DeleteFromCollection("c1", []string{"r1", "a;b"}, nil); !errors.Is(err, ErrInvalidReleaseID) {
		t.Fatalf("bad release error = %v, want ErrInvalidReleaseID", err)
	}
	if n := len(rec.Requests()); n != 0 {
		t.Fatalf("requests = %d, want 0", n)
	}
}
