package musicbrainz

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"

	"github.com/SCuellar21/picard/internal/apihelper"
	"github.com/SCuellar21/picard/internal/webservice"
)

const (
	// MetadataNamespace is the MusicBrainz XML schema namespace.
	MetadataNamespace = "http://musicbrainz.org/ns/mmd-2.0#"

	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

	maxRating   = 5
	ratingScale = 20
)

// ErrInvalidRating reports a stored rating outside 0..5.
var ErrInvalidRating = errors.New("musicbrainz: rating out of range")

// EntityKey identifies a rated entity.
type EntityKey struct {
	Type string
	ID   string
}

type metadataEnvelope struct {
	XMLName    xml.Name      `xml:"metadata"`
	Xmlns      string        `xml:"xmlns,attr"`
	Recordings recordingList `xml:"recording-list"`
}

type recordingList struct {
	Items []recordingRating `xml:"recording"`
}

type recordingRating struct {
	ID         string `xml:"id,attr"`
	UserRating int    `xml:"user-rating"`
}

// SubmitRatings posts the user's recording ratings. Keys of other entity
// types are ignored. Ratings use the tagger's 0..5 scale and are sent on
// the service's 0..100 scale.
func (c *Client) SubmitRatings(ratings map[EntityKey]int, handler webservice.Handler) (webservice.Handle, error) {
	body, err := ratingsBody(ratings)
	if err != nil {
		return webservice.Handle{}, err
	}
	return c.api.Post([]string{"rating"}, body, handler, apihelper.Options{
		Priority:     true,
		RequiresAuth: true,
		QueryArgs:    c.clientArgs(),
	})
}

func ratingsBody(ratings map[EntityKey]int) (string, error) {
	items := make([]recordingRating, 0, len(ratings))
	for key, rating := range ratings {
		if key.Type != "recording" {
			continue
		}
		if key.ID == "" {
			return "", fmt.Errorf("%w: recording rating", ErrEmptyID)
		}
		if rating < 0 || rating > maxRating {
			return "", fmt.Errorf("%w: recording %s rated %d", ErrInvalidRating, key.ID, rating)
		}
		items = append(items, recordingRating{ID: key.ID, UserRating: rating * ratingScale})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	out, err := xml.Marshal(metadataEnvelope{
		Xmlns:      MetadataNamespace,
		Recordings: recordingList{Items: items},
	})
	if err != nil {
		return "", fmt.Errorf("encode ratings: %w", err)
	}
	return xmlDeclaration + string(out), nil
}

func (c *Client) clientArgs() webservice.QueryArgs {
	return webservice.QueryArgs{"client": c.clientID}
}
