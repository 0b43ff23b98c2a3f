// Package config loads the warm boot agent configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SnapshotBackend selects where the persisted snapshot lives.
type SnapshotBackend string

const (
	// BackendFile keeps the snapshot in a local file
	BackendFile SnapshotBackend = "file"
	// BackendRedis keeps the snapshot in a Redis key (SONiC-style
	// warm restart state database)
	BackendRedis SnapshotBackend = "redis"
)

// RedisConfig locates the snapshot inside Redis.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
	Key  string `yaml:"key"`
}

// SnapshotConfig locates the persisted snapshot.
type SnapshotConfig struct {
	Backend SnapshotBackend `yaml:"backend"`
	Path    string          `yaml:"path"`
	Redis   RedisConfig     `yaml:"redis"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Config is the top-level agent configuration.
type Config struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Backend: BackendFile,
			Path:    "/var/warmboot/switch_state.json",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				DB:   6,
				Key:  "WARM_RESTART|switch_state",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case BackendFile:
		if c.Snapshot.Path == "" {
			return fmt.Errorf("snapshot.path required for file backend")
		}
	case BackendRedis:
		if c.Snapshot.Redis.Addr == "" {
			return fmt.Errorf("snapshot.redis.addr required for redis backend")
		}
		if c.Snapshot.Redis.Key == "" {
			return fmt.Errorf("snapshot.redis.key required for redis backend")
		}
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
