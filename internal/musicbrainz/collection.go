package musicbrainz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SCuellar21/picard/internal/apihelper"
	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/webservice"
)

// MaxCollectionBatch is the most release ids MusicBrainz accepts in one
// collection edit.
const MaxCollectionBatch = 400

const (
	defaultCollectionLimit = 100
)

// ErrInvalidReleaseID reports an empty release id or one containing ";" or "/".
var ErrInvalidReleaseID = errors.New("musicbrainz: invalid release id")

// CollectionIncludes are requested when reading a collection's releases.
var CollectionIncludes = []string{"releases", "artist-credits", "media"}

// GetCollection reads one collection's releases, or lists the user's
// collections when collectionID is empty (limit and offset are then unused).
func (c *Client) GetCollection(collectionID string, handler webservice.Handler, limit, offset int) (webservice.Handle, error) {
	segments := []string{"collection"}
	opts := apihelper.Options{Priority: true, Important: true, RequiresAuth: true}
	if collectionID != "" {
		segments = append(segments, collectionID, "releases")
		opts.QueryArgs = webservice.QueryArgs{
			"inc":    strings.Join(CollectionIncludes, "+"),
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}
	}
	return c.api.Get(segments, handler, opts)
}

// GetCollectionList lists the user's collections.
func (c *Client) GetCollectionList(handler webservice.Handler) (webservice.Handle, error) {
	return c.GetCollection("", handler, defaultCollectionLimit, 0)
}

// PutToCollection adds releases to a collection, one PUT per batch of at
// most MaxCollectionBatch ids. handler runs once per batch.
func (c *Client) PutToCollection(collectionID string, releases []string, handler webservice.Handler) ([]webservice.Handle, error) {
	return c.mutateCollection(collectionID, releases, func(segments []string) (webservice.Handle, error) {
		opts := apihelper.WriteOptions()
		opts.QueryArgs = c.clientArgs()
		return c.api.Put(segments, "", handler, opts)
	})
}

// DeleteFromCollection removes releases from a collection, one DELETE per
// batch of at most MaxCollectionBatch ids. handler runs once per batch.
func (c *Client) DeleteFromCollection(collectionID string, releases []string, handler webservice.Handler) ([]webservice.Handle, error) {
	return c.mutateCollection(collectionID, releases, func(segments []string) (webservice.Handle, error) {
		opts := apihelper.WriteOptions()
		opts.QueryArgs = c.clientArgs()
		return c.api.Delete(segments, handler, opts)
	})
}

func (c *Client) mutateCollection(collectionID string, releases []string, send func([]string) (webservice.Handle, error)) ([]webservice.Handle, error) {
	requests, err := CollectionRequests(collectionID, releases)
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("collection", collectionID).Int("releases", len(releases)).Int("batches", len(requests)).Msg("collection edit")

	handles := make([]webservice.Handle, 0, len(requests))
	for _, segments := range requests {
		h, err := send(segments)
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// CollectionRequests returns the path segments of each batch:
// [collection, <id>, releases, <id;id;...>]. No releases yields no batches.
func CollectionRequests(collectionID string, releases []string) ([][]string, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, fmt.Errorf("%w: collection", ErrEmptyID)
	}
	for i, id := range releases {
		if id == "" || strings.ContainsAny(id, ";/") {
			return nil, fmt.Errorf("%w: index %d %q", ErrInvalidReleaseID, i, id)
		}
	}
	chunks := Chunk(releases, MaxCollectionBatch)
	out := make([][]string, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, []string{"collection", collectionID, "releases", strings.Join(chunk, ";")})
	}
	return out, nil
}

// Chunk splits ids into consecutive groups of at most size, preserving order.
// The last group may be shorter. A size below 1 yields one group.
func Chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size < 1 {
		size = len(ids)
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}
