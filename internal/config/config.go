// Package config persists logq defaults, query history and saved queries
// in ~/.logq/config.json, and loads API credentials from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
)

// DefaultQueryBaseURL is the query endpoint used when the config file does
// not override it.
const DefaultQueryBaseURL = "https://eu-nbg-2-connect.betterstackdata.com"

const (
	// EnvAPIToken holds the telemetry API bearer token.
	EnvAPIToken = "LOGQ_API_TOKEN"
	// EnvQueryUsername and EnvQueryPassword hold the query API basic-auth
	// pair, which is issued separately from the API token.
	EnvQueryUsername = "LOGQ_QUERY_USERNAME"
	EnvQueryPassword = "LOGQ_QUERY_PASSWORD"
)

const maxHistory = 100

// Config mirrors the on-disk config.json document. Absent keys fall back
// to the documented defaults.
type Config struct {
	DefaultSource   string            `json:"defaultSource,omitempty"`
	DefaultLimit    int               `json:"defaultLimit,omitempty"`
	OutputFormat    string            `json:"outputFormat,omitempty"`
	DefaultLogLevel string            `json:"defaultLogLevel,omitempty"`
	QueryBaseURL    string            `json:"queryBaseUrl,omitempty"`
	QueryHistory    []string          `json:"queryHistory,omitempty"`
	SavedQueries    map[string]string `json:"savedQueries,omitempty"`
	SourceAliases   map[string]string `json:"sourceAliases,omitempty"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		DefaultLimit:    100,
		OutputFormat:    "json",
		DefaultLogLevel: "all",
	}
}

// ResolveAlias maps a short source alias to its full name. Unknown names
// pass through unchanged.
func (c Config) ResolveAlias(source string) string {
	if source == "" {
		return ""
	}
	if full, ok := c.SourceAliases[strings.ToLower(source)]; ok && full != "" {
		return full
	}
	return source
}

// Store reads and writes the config file. Concurrent invocations race on
// the file; last writer wins, which is acceptable because history and
// defaults are advisory.
type Store struct {
	Path string
}

// DefaultStore locates the config file under the user's home directory.
func DefaultStore() *Store {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Store{Path: filepath.Join(home, ".logq", "config.json")}
}

// Load reads the config file. A missing file yields defaults; a corrupt
// file yields defaults with a diagnostic, never an error.
func (s *Store) Load() Config {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("failed to read config, using defaults: %v", err)
		}
		return Defaults()
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("failed to load config, using defaults: %v", err)
		return Defaults()
	}

	if cfg.DefaultLogLevel == "" {
		cfg.DefaultLogLevel = "all"
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}
	return cfg
}

// Save writes cfg to disk, creating the config directory if needed.
func (s *Store) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Update applies fn to the loaded config and saves the result.
func (s *Store) Update(fn func(*Config)) error {
	cfg := s.Load()
	fn(&cfg)
	return s.Save(cfg)
}

// AddToHistory inserts the query at the front of the history, capped at
// 100 entries.
func (s *Store) AddToHistory(query string) error {
	return s.Update(func(c *Config) {
		c.QueryHistory = append([]string{query}, c.QueryHistory...)
		if len(c.QueryHistory) > maxHistory {
			c.QueryHistory = c.QueryHistory[:maxHistory]
		}
	})
}

// Credentials is the query API basic-auth pair.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no usable pair is present.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// QueryCredentials loads the basic-auth pair from the environment.
func QueryCredentials() Credentials {
	return Credentials{
		Username: os.Getenv(EnvQueryUsername),
		Password: os.Getenv(EnvQueryPassword),
	}
}

// APIToken loads the telemetry API token from the environment.
func APIToken() (string, error) {
	token := os.Getenv(EnvAPIToken)
	if token == "" {
		return "", fmt.Errorf(
			"%s environment variable is not set\nPlease add it to your shell configuration:\nexport %s=\"your_token_here\"",
			EnvAPIToken, EnvAPIToken)
	}
	return token, nil
}
