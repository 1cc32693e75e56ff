// Package config provides configuration loading and management for the
// kanban API server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variables consumed by the server.
const EnvPrefix = "KANBAN"

const (
	defaultAddress        = ":8080"
	defaultSyncInterval   = 5 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultSSLMode        = "require"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Address is the listen address for the REST API
	Address string `yaml:"address,omitempty"`

	// Auth configures bearer-token authentication for the read API
	Auth AuthConfig `yaml:"auth"`

	// YouGile configures the external project-management source
	YouGile YouGileConfig `yaml:"yougile"`

	// Sync configures the periodic ingestion loop
	Sync SyncConfig `yaml:"sync,omitempty"`

	// Database configures the PostgreSQL connection
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// AuthConfig defines the static bearer token used by the read API
type AuthConfig struct {
	// Token is the literal API token. Prefer TokenFile or the
	// KANBAN_API_TOKEN environment variable in production.
	Token string `yaml:"token,omitempty"`

	// TokenFile is the path to a file containing the API token
	TokenFile string `yaml:"tokenFile,omitempty"`
}

// GetToken resolves the API token from the configured sources.
func (a *AuthConfig) GetToken() (string, error) {
	if a.Token != "" {
		return a.Token, nil
	}

	if a.TokenFile != "" {
		token, err := readSecretFile(a.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read API token: %w", err)
		}
		return token, nil
	}

	if envToken := os.Getenv(EnvPrefix + "_API_TOKEN"); envToken != "" {
		return envToken, nil
	}

	return "", fmt.Errorf("no API token configured: set auth.token, auth.tokenFile or %s_API_TOKEN", EnvPrefix)
}

// YouGileConfig defines the external YouGile API source settings
type YouGileConfig struct {
	// BaseURL is the YouGile API base URL (without resource path)
	BaseURL string `yaml:"baseURL,omitempty"`

	// APIKey is the literal bearer key. Prefer APIKeyFile or the
	// KANBAN_YOUGILE_API_KEY environment variable in production.
	APIKey string `yaml:"apiKey,omitempty"`

	// APIKeyFile is the path to a file containing the bearer key
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`

	// RequestTimeout is the per-request timeout (e.g. "10s")
	RequestTimeout string `yaml:"requestTimeout,omitempty"`
}

// GetAPIKey resolves the YouGile API key from the configured sources.
func (y *YouGileConfig) GetAPIKey() (string, error) {
	if y.APIKey != "" {
		return y.APIKey, nil
	}

	if y.APIKeyFile != "" {
		key, err := readSecretFile(y.APIKeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read YouGile API key: %w", err)
		}
		return key, nil
	}

	if envKey := os.Getenv(EnvPrefix + "_YOUGILE_API_KEY"); envKey != "" {
		return envKey, nil
	}

	return "", fmt.Errorf(
		"no YouGile API key configured: set yougile.apiKey, yougile.apiKeyFile or %s_YOUGILE_API_KEY", EnvPrefix)
}

// GetRequestTimeout returns the per-request timeout, falling back to the
// default when unset or unparseable.
func (y *YouGileConfig) GetRequestTimeout() time.Duration {
	if y.RequestTimeout == "" {
		return defaultRequestTimeout
	}
	d, err := time.ParseDuration(y.RequestTimeout)
	if err != nil || d <= 0 {
		return defaultRequestTimeout
	}
	return d
}

// SyncConfig defines the ingestion scheduling settings
type SyncConfig struct {
	// Enabled toggles the background ingestion loop. Defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Interval is the wall-clock interval between ingestion passes
	// (e.g. "5m"). Defaults to 5 minutes.
	Interval string `yaml:"interval,omitempty"`
}

// IsEnabled reports whether the ingestion loop should run.
func (s *SyncConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// GetInterval returns the ingestion interval, falling back to the default
// when unset or unparseable.
func (s *SyncConfig) GetInterval() time.Duration {
	if s.Interval == "" {
		return defaultSyncInterval
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return defaultSyncInterval
	}
	return d
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing
	// whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// MinConns is the minimum number of idle connections kept in the pool
	MinConns int32 `yaml:"minConns,omitempty"`
}

// GetPassword resolves the database password from the configured sources.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		password, err := readSecretFile(d.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read database password: %w", err)
		}
		return password, nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set database.passwordFile or %s_DATABASE_PASSWORD", EnvPrefix)
}

// GetConnectionString builds a PostgreSQL connection string with proper
// password handling. The password is URL-escaped to handle special
// characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetAddress returns the listen address, falling back to the default.
func (c *Config) GetAddress() string {
	if c.Address == "" {
		return defaultAddress
	}
	return c.Address
}

// Validate checks the configuration for missing required fields.
func (c *Config) Validate() error {
	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Sync.IsEnabled() && c.YouGile.BaseURL == "" {
		return fmt.Errorf("yougile baseURL is required when sync is enabled")
	}
	if c.YouGile.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.YouGile.BaseURL); err != nil {
			return fmt.Errorf("invalid yougile baseURL: %w", err)
		}
	}
	return nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// readSecretFile reads a secret from a file, trimming surrounding whitespace.
func readSecretFile(path string) (string, error) {
	// Use filepath.Clean to prevent path traversal attacks
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
