package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the tagger's web-service settings. It satisfies the settings
// interfaces of the musicbrainz and acoustid clients and the transport's
// Credentials.
type Config struct {
	MusicBrainzHost      string `validate:"required,hostname_rfc1123"`
	MusicBrainzPort      int    `validate:"min=1,max=65535"`
	AdvancedSearchSyntax bool

	AcoustIDUserKey   string
	AcoustIDServer    string `validate:"required,hostname_rfc1123"`
	AcoustIDPortNum   int    `validate:"min=1,max=65535"`
	AcoustIDClientApp string `validate:"required"`

	OAuthToken string

	LogLevel  string `validate:"oneof=trace debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
	// LogFile receives logs while the monitor owns the terminal.
	LogFile     string `validate:"required"`
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

const (
	defaultConfigPath = "~/.config/picard/picard.toml"
	defaultEnvFile    = ".env"

	defaultServerHost   = "musicbrainz.org"
	defaultServerPort   = 443
	defaultAcoustIDHost = "api.acoustid.org"
	defaultAcoustIDPort = 443
	// Application key registered for the tagger with AcoustID.
	defaultAcoustIDClientKey = "v8pQ6oyB"
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFile           = "~/.local/state/picard/picard-ws.log"

	// EnvFileVar names the .env file holding secret overrides.
	EnvFileVar = "PICARD_ENV_FILE"
	// EnvAcoustIDKey overrides acoustid_apikey.
	EnvAcoustIDKey = "PICARD_ACOUSTID_APIKEY"
	// EnvOAuthToken overrides oauth_access_token.
	EnvOAuthToken = "PICARD_OAUTH_TOKEN"
)

var validate = validator.New()

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		MusicBrainzHost:   defaultServerHost,
		MusicBrainzPort:   defaultServerPort,
		AcoustIDServer:    defaultAcoustIDHost,
		AcoustIDPortNum:   defaultAcoustIDPort,
		AcoustIDClientApp: defaultAcoustIDClientKey,
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
		LogFile:           mustExpand(defaultLogFile),
	}
}

// Load reads the TOML config at path (the default location when empty),
// applies secret overrides from the environment and the .env file, and
// validates the result. A missing file yields defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.readFile(resolved); err != nil {
		return Config{}, err
	}
	if err := cfg.applySecrets(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerHost         string `toml:"server_host"`
		ServerPort         int    `toml:"server_port"`
		UseAdvSearchSyntax bool   `toml:"use_adv_search_syntax"`
		AcoustIDAPIKey     string `toml:"acoustid_apikey"`
		AcoustIDHost       string `toml:"acoustid_host"`
		AcoustIDPort       int    `toml:"acoustid_port"`
		AcoustIDClientKey  string `toml:"acoustid_client_key"`
		OAuthAccessToken   string `toml:"oauth_access_token"`
		Log                struct {
			Level  string `toml:"level"`
			Format string `toml:"format"`
			File   string `toml:"file"`
		} `toml:"log"`
		Monitor struct {
			MetricsAddr string `toml:"metrics_addr"`
		} `toml:"monitor"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&c.MusicBrainzHost, raw.ServerHost)
	setInt(&c.MusicBrainzPort, raw.ServerPort)
	c.AdvancedSearchSyntax = raw.UseAdvSearchSyntax
	setString(&c.AcoustIDUserKey, raw.AcoustIDAPIKey)
	setString(&c.AcoustIDServer, raw.AcoustIDHost)
	setInt(&c.AcoustIDPortNum, raw.AcoustIDPort)
	setString(&c.AcoustIDClientApp, raw.AcoustIDClientKey)
	setString(&c.OAuthToken, raw.OAuthAccessToken)
	setString(&c.LogLevel, strings.ToLower(raw.Log.Level))
	setString(&c.LogFormat, strings.ToLower(raw.Log.Format))
	if strings.TrimSpace(raw.Log.File) != "" {
		c.LogFile = mustExpand(raw.Log.File)
	}
	setString(&c.MetricsAddr, raw.Monitor.MetricsAddr)
	return nil
}

// applySecrets overlays the .env file, then the process environment.
func (c *Config) applySecrets() error {
	envPath := strings.TrimSpace(os.Getenv(EnvFileVar))
	explicit := envPath != ""
	if !explicit {
		envPath = defaultEnvFile
	}
	values, err := godotenv.Read(mustExpand(envPath))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			values = nil
		} else {
			return fmt.Errorf("read env file: %w", err)
		}
	}

	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return values[key]
	}
	setString(&c.AcoustIDUserKey, lookup(EnvAcoustIDKey))
	setString(&c.OAuthToken, lookup(EnvOAuthToken))
	return nil
}

// Validate checks hosts, ports and log settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServerHost returns the MusicBrainz host.
func (c Config) ServerHost() string { return c.MusicBrainzHost }

// ServerPort returns the MusicBrainz port.
func (c Config) ServerPort() int { return c.MusicBrainzPort }

// UseAdvancedSearchSyntax reports whether free-text searches are sent verbatim.
func (c Config) UseAdvancedSearchSyntax() bool { return c.AdvancedSearchSyntax }

// AcoustIDHost returns the AcoustID host.
func (c Config) AcoustIDHost() string { return c.AcoustIDServer }

// AcoustIDPort returns the AcoustID port.
func (c Config) AcoustIDPort() int { return c.AcoustIDPortNum }

// AcoustIDAPIKey returns the user's AcoustID API key, or "".
func (c Config) AcoustIDAPIKey() string { return c.AcoustIDUserKey }

// AcoustIDClientKey returns the application key sent as client.
func (c Config) AcoustIDClientKey() string { return c.AcoustIDClientApp }

// OAuthAccessToken returns the MusicBrainz bearer token, or "".
func (c Config) OAuthAccessToken() string { return c.OAuthToken }

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setInt(dst *int, value int) {
	if value != 0 {
		*dst = value
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
