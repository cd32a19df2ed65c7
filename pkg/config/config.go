// Package config loads sorrycast configuration from a JSON file merged
// with SORRYCAST_* environment overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	API   APIConfig   `json:"api"`
	Inbox InboxConfig `json:"inbox"`
	OAuth OAuthConfig `json:"oauth"`
	Log   LogConfig   `json:"log"`
}

type APIConfig struct {
	BaseURL        string `env:"SORRYCAST_API_BASE_URL" json:"base_url"`
	Token          string `env:"SORRYCAST_API_TOKEN"    json:"token,omitempty"`
	TimeoutSeconds int    `env:"SORRYCAST_API_TIMEOUT"  json:"timeout_seconds"`
}

type InboxConfig struct {
	PollIntervalSeconds int `env:"SORRYCAST_INBOX_POLL_INTERVAL" json:"poll_interval_seconds"`
}

// OAuthClientConfig is one platform's public OAuth client. Only the
// authorize URL is built locally; the backend exchanges the code.
type OAuthClientConfig struct {
	ClientID    string   `env:"CLIENT_ID"    json:"client_id"`
	RedirectURL string   `env:"REDIRECT_URL" json:"redirect_url"`
	Scopes      []string `json:"scopes,omitempty"`
}

type OAuthConfig struct {
	Slack   OAuthClientConfig `envPrefix:"SORRYCAST_OAUTH_SLACK_"   json:"slack"`
	LINE    OAuthClientConfig `envPrefix:"SORRYCAST_OAUTH_LINE_"    json:"line"`
	Discord OAuthClientConfig `envPrefix:"SORRYCAST_OAUTH_DISCORD_" json:"discord"`
	YouTube OAuthClientConfig `envPrefix:"SORRYCAST_OAUTH_YOUTUBE_" json:"youtube"`
}

type LogConfig struct {
	Level string `env:"SORRYCAST_LOG_LEVEL" json:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3001/api",
			TimeoutSeconds: 30,
		},
		Inbox: InboxConfig{
			PollIntervalSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path on top of defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// PollInterval returns the inbox refresh interval, never zero.
func (c *Config) PollInterval() time.Duration {
	if c.Inbox.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Inbox.PollIntervalSeconds) * time.Second
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}
