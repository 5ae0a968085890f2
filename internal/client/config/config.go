// Package config loads runtime configuration for the Wordbook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config.
//  3. WORDBOOK_CLI_* environment variables.
//  4. Command-line flags, applied by the cli package on top of the result.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_db": "wordbook.db",
//	  "timeout": "30s"
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/timex"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "WORDBOOK_CLI"

// Config holds runtime settings for the Wordbook CLI.
//
// Fields:
//   - ServerURL: base URL of the Wordbook HTTP API.
//   - SessionDB: path of the local SQLite file holding the signed-in session.
//   - Timeout: per-request timeout of the API client.
type Config struct {
	ServerURL string        `envconfig:"SERVER_URL"`
	SessionDB string        `envconfig:"SESSION_DB"`
	Timeout   time.Duration `envconfig:"TIMEOUT"`
}

// JSONConfig is the on-disk form of Config.
type JSONConfig struct {
	ServerURL *string         `json:"server_url"`
	SessionDB *string         `json:"session_db"`
	Timeout   *timex.Duration `json:"timeout"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionDB = "wordbook.db"
	c.Timeout = 30 * time.Second
}

// LoadConfig builds a Config from defaults, the JSON file at path (skipped
// when empty) and the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.SessionDB != nil {
		cfg.SessionDB = *jc.SessionDB
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
