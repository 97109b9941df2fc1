// Package musicbrainz builds requests for the MusicBrainz XML web service
// (ws/2): entity lookups, searches, release browsing, rating submission and
// collection membership. Requests are handed to a transport; replies are not
// parsed here.
package musicbrainz
