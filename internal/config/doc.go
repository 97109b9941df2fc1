// Package config loads the tagger's web-service settings.
//
// # Sources
//
// Settings are resolved in this order, later sources winning:
//
//  1. Built-in defaults
//  2. The TOML file (~/.config/picard/picard.toml unless a path is given)
//  3. The .env file named by PICARD_ENV_FILE (./.env when unset, optional)
//  4. The process environment
//
// Only the secrets (PICARD_ACOUSTID_APIKEY, PICARD_OAUTH_TOKEN) can be
// overridden from the environment. Empty or whitespace values never replace
// a default.
//
// # TOML Format
//
//	server_host = "musicbrainz.org"
//	server_port = 443
//	use_adv_search_syntax = false
//	acoustid_apikey = ""
//	acoustid_host = "api.acoustid.org"
//	acoustid_port = 443
//	acoustid_client_key = "v8pQ6oyB"
//	oauth_access_token = ""
//
//	[log]
//	level = "info"      # trace, debug, info, warn, error
//	format = "console"  # console or json
//	file = "~/.local/state/picard/picard-ws.log"  # used while the monitor runs
//
//	[monitor]
//	metrics_addr = ":9090"  # empty disables the /metrics listener
//
// # Validation
//
// Load rejects hosts that are not RFC 1123 names, ports outside 1-65535,
// unknown log levels or formats, and malformed metrics addresses.
//
// Config implements musicbrainz.Settings, acoustid.Settings and
// webservice.Credentials, so one value is passed to every constructor.
package config
