// Package config loads typequery configuration from a YAML file with
// environment variable overrides. Missing files fall back to defaults so
// the CLI works against a standard server installation out of the box.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all typequery configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Query   QueryConfig   `yaml:"query"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes how to reach the analysis server.
type ServerConfig struct {
	// Binary is the server client executable that forwards queries to
	// the running server.
	Binary string `yaml:"binary"`
	// Args are inserted before the query subcommand on every call.
	Args []string `yaml:"args"`
	// Timeout bounds one round trip, as a time.ParseDuration string.
	Timeout string `yaml:"timeout"`
}

// QueryConfig tunes request shaping.
type QueryConfig struct {
	// BatchSize caps how many subjects are sent per round trip.
	// 0 means unbatched: everything goes in a single query.
	BatchSize int `yaml:"batch_size"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Binary:  "pyre",
			Timeout: "120s",
		},
		Query: QueryConfig{
			BatchSize: 0,
		},
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if binary := os.Getenv("TYPEQUERY_SERVER_BINARY"); binary != "" {
		c.Server.Binary = binary
	}
	if timeout := os.Getenv("TYPEQUERY_TIMEOUT"); timeout != "" {
		c.Server.Timeout = timeout
	}
	if size := os.Getenv("TYPEQUERY_BATCH_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil {
			c.Query.BatchSize = parsed
		}
	}
	if verbose := os.Getenv("TYPEQUERY_VERBOSE"); verbose != "" {
		c.Logging.Verbose = verbose == "1" || verbose == "true"
	}
}

// Validate rejects configurations the query layer would refuse anyway,
// so mistakes surface at startup rather than mid-run.
func (c *Config) Validate() error {
	if c.Server.Binary == "" {
		return fmt.Errorf("server.binary must not be empty")
	}
	if _, err := time.ParseDuration(c.Server.Timeout); err != nil {
		return fmt.Errorf("server.timeout is not a valid duration: %w", err)
	}
	if c.Query.BatchSize < 0 {
		return fmt.Errorf("query.batch_size must not be negative, got %d", c.Query.BatchSize)
	}
	return nil
}

// GetTimeout parses the round trip timeout.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
