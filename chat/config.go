package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultBaseURL is the same-origin style fallback when nothing else
	// names the backend.
	DefaultBaseURL = "http://localhost:8000"

	// EnvBaseURL overrides the configured backend address at runtime.
	EnvBaseURL = "AUTONOMIND_API_URL"

	// DefaultLanguage is the locale used when the config names none.
	DefaultLanguage = "en"
)

// Config is the client configuration, read from a TOML file.
type Config struct {
	// BaseURL is the backend base address from configuration. Runtime
	// overrides (flag, then environment) take precedence over it.
	BaseURL string `toml:"base_url"`

	// Language is the initial locale code for replies.
	Language string `toml:"language"`

	// HistoryPath is the SQLite file holding the conversation cache.
	// Empty means the default under the user's home directory.
	HistoryPath string `toml:"history_path"`

	// Debug enables debug logging.
	Debug bool `toml:"debug"`
}

// LoadConfig reads the TOML config at path. An empty path yields defaults; a
// named path must exist.
func LoadConfig(path string) (Config, error) {
	cfg := Config{Language: DefaultLanguage}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return cfg, nil
}

// ResolveBaseURL resolves the backend base address once per session, with
// precedence: explicit override (flag) > environment > config file > default.
func (c Config) ResolveBaseURL(override string) string {
	for _, candidate := range []string{override, os.Getenv(EnvBaseURL), c.BaseURL} {
		if v := strings.TrimSpace(candidate); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return DefaultBaseURL
}

// ResolveHistoryPath resolves the conversation cache location, creating the
// parent directory if needed. An explicit value wins over the config, which
// wins over ~/.autonomind/history.db.
func (c Config) ResolveHistoryPath(override string) (string, error) {
	path := override
	if path == "" {
		path = c.HistoryPath
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".autonomind", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return path, nil
}
