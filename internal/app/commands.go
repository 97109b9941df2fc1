package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SCuellar21/picard/internal/acoustid"
	"github.com/SCuellar21/picard/internal/musicbrainz"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// Usage lists the commands understood by Run.
const Usage = `usage: picard-ws [-config path] [-monitor] <command> [args]

commands:
  release <id> [inc...]                  look up a release
  recording <id> [inc...]                look up a recording
  disc <discid>                          look up releases by disc id
  search <entity> <query...>             free-text search
  find <entity> name=value...            structured search
  browse name=value...                   browse releases (artist, label, type=a,b ...)
  rate recording:<id>=<0-5>...           submit recording ratings
  collections                            list your collections
  collection <id> [limit offset]         list releases in a collection
  collection-add <id> <release...>       add releases to a collection
  collection-remove <id> <release...>    remove releases from a collection
  fp-lookup <duration> <fingerprint>     look up an AcoustID fingerprint
  fp-submit <fp>:<duration>:<mbid>[:<puid>]...  submit fingerprints`

const defaultSearchLimit = 25

// dispatcher maps command lines onto client operations.
type dispatcher struct {
	mb  *musicbrainz.Client
	ac  *acoustid.Client
	out *printer
}

// dispatch issues the requests for args and returns how many completions to
// expect.
func (d *dispatcher) dispatch(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrUsage
	}
	cmd, rest := args[0], args[1:]
	h := d.out.handler(strings.Join(args, " "))

	switch cmd {
	case "release", "recording":
		if len(rest) < 1 {
			return 0, usageError("%s needs an id", cmd)
		}
		opts := musicbrainz.LookupOptions{Includes: rest[1:], Priority: true, Important: true}
		var err error
		if cmd == "release" {
			_, err = d.mb.GetReleaseByID(rest[0], h, opts)
		} else {
			_, err = d.mb.GetRecordingByID(rest[0], h, opts)
		}
		return one(err)

	case "disc":
		if len(rest) != 1 {
			return 0, usageError("disc needs one disc id")
		}
		_, err := d.mb.LookupDiscID(rest[0], h, false)
		return one(err)

	case "search":
		if len(rest) < 2 {
			return 0, usageError("search needs an entity and a query")
		}
		_, err := d.mb.Find(rest[0], h, musicbrainz.SearchOptions{
			Search: true,
			Query:  strings.Join(rest[1:], " "),
			Limit:  defaultSearchLimit,
		})
		return one(err)

	case "find":
		if len(rest) < 2 {
			return 0, usageError("find needs an entity and name=value fields")
		}
		pairs, err := parsePairs(rest[1:])
		if err != nil {
			return 0, err
		}
		fields := make([]musicbrainz.Field, 0, len(pairs))
		for _, p := range pairs {
			fields = append(fields, musicbrainz.Field{Name: p[0], Value: p[1]})
		}
		_, err = d.mb.Find(rest[0], h, musicbrainz.SearchOptions{Fields: fields, Limit: defaultSearchLimit})
		return one(err)

	case "browse":
		opts, err := parseBrowse(rest)
		if err != nil {
			return 0, err
		}
		_, err = d.mb.BrowseReleases(h, musicbrainz.DefaultBrowseReleaseIncludes, opts)
		return one(err)

	case "rate":
		ratings, err := parseRatings(rest)
		if err != nil {
			return 0, err
		}
		_, err = d.mb.SubmitRatings(ratings, h)
		return one(err)

	case "collections":
		_, err := d.mb.GetCollectionList(h)
		return one(err)

	case "collection":
		if len(rest) != 1 && len(rest) != 3 {
			return 0, usageError("collection needs an id and optionally limit and offset")
		}
		limit, offset := 100, 0
		if len(rest) == 3 {
			var err error
			if limit, err = strconv.Atoi(rest[1]); err != nil {
				return 0, usageError("bad limit %q", rest[1])
			}
			if offset, err = strconv.Atoi(rest[2]); err != nil {
				return 0, usageError("bad offset %q", rest[2])
			}
		}
		_, err := d.mb.GetCollection(rest[0], h, limit, offset)
		return one(err)

	case "collection-add", "collection-remove":
		if len(rest) < 2 {
			return 0, usageError("%s needs a collection id and release ids", cmd)
		}
		mutate := d.mb.PutToCollection
		if cmd == "collection-remove" {
			mutate = d.mb.DeleteFromCollection
		}
		handles, err := mutate(rest[0], rest[1:], h)
		return len(handles), err

	case "fp-lookup":
		if len(rest) != 2 {
			return 0, usageError("fp-lookup needs a duration and a fingerprint")
		}
		duration, err := strconv.Atoi(rest[0])
		if err != nil {
			return 0, usageError("bad duration %q", rest[0])
		}
		_, err = d.ac.Lookup(h, acoustid.LookupOptions{Fingerprint: rest[1], Duration: duration})
		return one(err)

	case "fp-submit":
		subs, err := parseSubmissions(rest)
		if err != nil {
			return 0, err
		}
		_, err = d.ac.SubmitFingerprints(subs, h)
		return one(err)
	}
	return 0, usageError("unknown command %q", cmd)
}

func one(err error) (int, error) {
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func parsePairs(args []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, usageError("expected name=value, got %q", arg)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(name), value})
	}
	return pairs, nil
}

func parseBrowse(args []string) (musicbrainz.BrowseOptions, error) {
	var opts musicbrainz.BrowseOptions
	pairs, err := parsePairs(args)
	if err != nil {
		return opts, err
	}
	if len(pairs) == 0 {
		return opts, usageError("browse needs at least one name=value")
	}
	for _, p := range pairs {
		name, value := p[0], p[1]
		switch name {
		case "artist":
			opts.Artist = value
		case "collection":
			opts.Collection = value
		case "label":
			opts.Label = value
		case "recording":
			opts.Recording = value
		case "release-group":
			opts.ReleaseGroup = value
		case "track":
			opts.Track = value
		case "track_artist":
			opts.TrackArtist = value
		case "type":
			opts.Type = strings.Split(value, ",")
		case "status":
			opts.Status = strings.Split(value, ",")
		case "limit", "offset":
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, usageError("bad %s %q", name, value)
			}
			if name == "limit" {
				opts.Limit = n
			} else {
				opts.Offset = n
			}
		default:
			return opts, usageError("unknown browse field %q", name)
		}
	}
	return opts, nil
}

// parseRatings reads type:id=rating arguments.
func parseRatings(args []string) (map[musicbrainz.EntityKey]int, error) {
	if len(args) == 0 {
		return nil, usageError("rate needs recording:<id>=<rating>")
	}
	ratings := make(map[musicbrainz.EntityKey]int, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, usageError("expected type:id=rating, got %q", arg)
		}
		typ, id, ok := strings.Cut(key, ":")
		if !ok {
			return nil, usageError("expected type:id=rating, got %q", arg)
		}
		rating, err := strconv.Atoi(value)
		if err != nil {
			return nil, usageError("bad rating %q", value)
		}
		ratings[musicbrainz.EntityKey{Type: typ, ID: id}] = rating
	}
	return ratings, nil
}

// parseSubmissions reads fingerprint:duration:mbid[:puid] arguments.
func parseSubmissions(args []string) ([]acoustid.Submission, error) {
	if len(args) == 0 {
		return nil, usageError("fp-submit needs fingerprint:duration:mbid")
	}
	subs := make([]acoustid.Submission, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, usageError("expected fingerprint:duration:mbid[:puid], got %q", arg)
		}
		duration, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, usageError("bad duration %q", parts[1])
		}
		sub := acoustid.Submission{Fingerprint: parts[0], Duration: duration, RecordingID: parts[2]}
		if len(parts) == 4 {
			sub.PUID = parts[3]
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
