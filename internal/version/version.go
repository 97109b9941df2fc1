// Package version carries the application identity sent to remote services.
package version

// Version is overridden at build time with -ldflags "-X ...version.Version=".
var Version = "2.1.0"

const (
	orgName = "MusicBrainz"
	appName = "Picard"
)

// ClientString identifies the application to MusicBrainz in the client
// query argument, e.g. "MusicBrainz Picard-2.1.0". Callers percent-encode it.
func ClientString() string {
	return orgName + " " + appName + "-" + Version
}

// UserAgent is the HTTP User-Agent header value.
func UserAgent() string {
	return orgName + "-" + appName + "/" + Version + " ( https://picard.musicbrainz.org/ )"
}
