// Package apihelper holds the pieces shared by the MusicBrainz and AcoustID
// request builders: Lucene escaping, percent-encoding, path construction and
// a verb-generic Client anchored at one service endpoint.
package apihelper
