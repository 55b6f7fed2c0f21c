package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Path: filepath.Join(t.TempDir(), "config.json")}
}

func TestStore_LoadMissingFile(t *testing.T) {
	cfg := testStore(t).Load()

	if cfg.DefaultLimit != 100 {
		t.Errorf("expected default limit 100, got %d", cfg.DefaultLimit)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("expected default format json, got %q", cfg.OutputFormat)
	}
	if cfg.DefaultLogLevel != "all" {
		t.Errorf("expected default level all, got %q", cfg.DefaultLogLevel)
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := s.Load()
	if cfg.DefaultLimit != 100 || cfg.OutputFormat != "json" {
		t.Errorf("corrupt config should fall back to defaults, got %+v", cfg)
	}
}

func TestStore_LoadBackfillsMissingKeys(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path, []byte(`{"defaultSource": "prod"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := s.Load()
	if cfg.DefaultSource != "prod" {
		t.Errorf("expected defaultSource prod, got %q", cfg.DefaultSource)
	}
	if cfg.DefaultLimit != 100 || cfg.OutputFormat != "json" || cfg.DefaultLogLevel != "all" {
		t.Errorf("missing keys should backfill with defaults, got %+v", cfg)
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	s := testStore(t)

	cfg := Defaults()
	cfg.DefaultSource = "staging"
	cfg.DefaultLimit = 25
	cfg.SourceAliases = map[string]string{"st": "staging"}
	if err := s.Save(cfg); err != nil {
		t.Fatal(err)
	}

	loaded := s.Load()
	if loaded.DefaultSource != "staging" || loaded.DefaultLimit != 25 {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
	if loaded.SourceAliases["st"] != "staging" {
		t.Errorf("aliases should round-trip, got %+v", loaded.SourceAliases)
	}
}

func TestStore_Update(t *testing.T) {
	s := testStore(t)

	if err := s.Update(func(c *Config) { c.DefaultSource = "prod" }); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(func(c *Config) { c.DefaultLimit = 10 }); err != nil {
		t.Fatal(err)
	}

	cfg := s.Load()
	if cfg.DefaultSource != "prod" || cfg.DefaultLimit != 10 {
		t.Errorf("updates should accumulate, got %+v", cfg)
	}
}

func TestStore_HistoryCapAndOrder(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 105; i++ {
		if err := s.AddToHistory(fmt.Sprintf("query-%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	history := s.Load().QueryHistory
	if len(history) != 100 {
		t.Fatalf("expected history capped at 100, got %d", len(history))
	}
	if history[0] != "query-104" {
		t.Errorf("expected newest entry first, got %q", history[0])
	}
	if history[99] != "query-5" {
		t.Errorf("expected oldest surviving entry last, got %q", history[99])
	}
}

func TestConfig_ResolveAlias(t *testing.T) {
	cfg := Config{SourceAliases: map[string]string{"prod": "production-eu-1"}}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "known alias", input: "prod", expected: "production-eu-1"},
		{name: "alias lookup is case-insensitive", input: "PROD", expected: "production-eu-1"},
		{name: "unknown name passes through", input: "staging", expected: "staging"},
		{name: "empty stays empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ResolveAlias(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAPIToken(t *testing.T) {
	t.Setenv(EnvAPIToken, "")
	if _, err := APIToken(); err == nil {
		t.Error("expected error when token is unset")
	}

	t.Setenv(EnvAPIToken, "tok_123")
	token, err := APIToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok_123" {
		t.Errorf("expected tok_123, got %q", token)
	}
}

func TestQueryCredentials(t *testing.T) {
	t.Setenv(EnvQueryUsername, "")
	t.Setenv(EnvQueryPassword, "")
	if creds := QueryCredentials(); !creds.Empty() {
		t.Errorf("expected empty credentials, got %+v", creds)
	}

	t.Setenv(EnvQueryUsername, "user")
	t.Setenv(EnvQueryPassword, "pass")
	creds := QueryCredentials()
	if creds.Empty() {
		t.Error("expected populated credentials")
	}
	if creds.Username != "user" || creds.Password != "pass" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}
