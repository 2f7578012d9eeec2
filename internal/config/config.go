package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory when no
// explicit path is given.
const DefaultPath = "ucm.yml"

// Backend names accepted by the backend setting.
const (
	BackendLocal  = "local"
	BackendNocoDB = "nocodb"
	BackendRedis  = "redis"
)

const (
	defaultPort          = 3000
	defaultDataDir       = "data"
	defaultNocoDBBaseURL = "http://localhost:8080"
	defaultNocoDBTimeout = "10s"
	defaultRedisURL      = "redis://localhost:6379/0"
	defaultNamespace     = "default"
)

// Config represents the top-level ucm.yml configuration
type Config struct {
	Backend string       `yaml:"backend"`  // local, nocodb or redis; inferred when empty
	DataDir string       `yaml:"data_dir"` // Directory holding use-cases.json and backups
	Port    int          `yaml:"port"`     // HTTP listen port for `ucm serve`
	LogMode string       `yaml:"log_mode"` // development, production or quiet
	NocoDB  NocoDBConfig `yaml:"nocodb"`
	Redis   RedisConfig  `yaml:"redis"`
}

// NocoDBConfig configures the remote table backend
type NocoDBConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
	TableID  string `yaml:"table_id"`
	Timeout  string `yaml:"timeout,omitempty"` // Go duration, per request
}

// RedisConfig configures the Redis backend
type RedisConfig struct {
	URL       string `yaml:"url"`       // redis://host:port/db
	Namespace string `yaml:"namespace"` // Key prefix segment, lets several catalogs share a server
}

// Configured reports whether both credentials required for remote access are present.
func (n NocoDBConfig) Configured() bool {
	return n.APIToken != "" && n.TableID != ""
}

// RequestTimeout returns the parsed per-request timeout.
func (n NocoDBConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates the result.
//
// An empty path means DefaultPath, which is optional: a missing default file
// yields a pure environment/default configuration. An explicit path must exist.
func Load(path string) (*Config, error) {
	var config Config

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; environment and defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config.applyEnv(os.LookupEnv)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnv overlays environment variables onto values read from the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("UCM_BACKEND", &c.Backend)
	set("UCM_DATA_DIR", &c.DataDir)
	set("UCM_LOG_MODE", &c.LogMode)
	set("NOCODB_BASE_URL", &c.NocoDB.BaseURL)
	set("NOCODB_API_TOKEN", &c.NocoDB.APIToken)
	set("NOCODB_TABLE_ID", &c.NocoDB.TableID)
	set("REDIS_URL", &c.Redis.URL)

	if v, ok := lookup("PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		} else {
			// Keep the bad value visible to Validate
			c.Port = -1
		}
	}
}

func (c *Config) applyDefaults() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		// Remote storage is preferred as soon as any of its credentials are
		// present; a half-configured remote falls back to local at runtime.
		if c.NocoDB.APIToken != "" || c.NocoDB.TableID != "" {
			c.Backend = BackendNocoDB
		} else {
			c.Backend = BackendLocal
		}
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.NocoDB.BaseURL == "" {
		c.NocoDB.BaseURL = defaultNocoDBBaseURL
	}
	if c.NocoDB.Timeout == "" {
		c.NocoDB.Timeout = defaultNocoDBTimeout
	}
	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = defaultNamespace
	}
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal, BackendNocoDB, BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q (expected: %s, %s or %s)", c.Backend, BackendLocal, BackendNocoDB, BackendRedis)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	if _, err := time.ParseDuration(c.NocoDB.Timeout); err != nil {
		return fmt.Errorf("nocodb.timeout: invalid duration %q", c.NocoDB.Timeout)
	}

	if strings.ContainsAny(c.Redis.Namespace, ": ") {
		return fmt.Errorf("redis.namespace must not contain ':' or spaces, got %q", c.Redis.Namespace)
	}

	return nil
}
