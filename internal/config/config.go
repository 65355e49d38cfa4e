package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models minik.yml.
type Config struct {
	GitHub struct {
		APIURL     string `yaml:"api_url"`
		GraphQLURL string `yaml:"graphql_url"`
		UserAgent  string `yaml:"user_agent"`
	} `yaml:"github"`
	Board struct {
		StatusField string `yaml:"status_field"`
	} `yaml:"board"`
	HTTP struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"http"`
}

// Timeout returns the configured request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Board.StatusField == "" {
		return fmt.Errorf("config.board.status_field is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.http.timeout_seconds must be positive")
	}
	for name, raw := range map[string]string{
		"config.github.api_url":     c.GitHub.APIURL,
		"config.github.graphql_url": c.GitHub.GraphQLURL,
	} {
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %s", name, raw)
		}
	}
	if c.GitHub.UserAgent == "" {
		return fmt.Errorf("config.github.user_agent is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "minik.yml")
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	cfg.GitHub.APIURL = "https://api.github.com"
	cfg.GitHub.GraphQLURL = "https://api.github.com/graphql"
	cfg.GitHub.UserAgent = "Minik-Kanban-App"
	cfg.Board.StatusField = "Status"
	cfg.HTTP.TimeoutSeconds = 15
	return &cfg
}

// LoadOptional returns the workspace config, or defaults if minik.yml
// does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Fields left
// unset keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}
