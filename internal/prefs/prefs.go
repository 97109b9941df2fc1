// Package prefs persists request monitor preferences in
// ~/.config/picard/monitor.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/SCuellar21/picard/internal/logging"
)

// Prefs holds the monitor's remembered settings.
type Prefs struct {
	Theme  string `toml:"theme"`
	Filter string `toml:"filter"`
}

const (
	defaultPrefsPath = "~/.config/picard/monitor.toml"
	defaultTheme     = "Nightfox"
	defaultFilter    = "All"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme, Filter: defaultFilter}
}

// Load reads preferences from path (the default location when empty). Any
// problem yields defaults; preferences never block startup.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults()
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug().Err(err).Str("path", resolved).Msg("read monitor prefs")
		}
		return defaults()
	}

	p := defaults()
	if err := toml.Unmarshal(bytes, &p); err != nil {
		logging.Debug().Err(err).Str("path", resolved).Msg("parse monitor prefs")
		return defaults()
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if strings.TrimSpace(p.Filter) == "" {
		p.Filter = defaultFilter
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
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
