// Package config loads designer settings from a TOML file.
//
// Settings cover the pieces that vary between installations: which store
// backend persists projects, the refresh debounce interval, and the
// inspection API listen address. Everything has a working default so the
// designer runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is looked up in the working directory when no explicit
// path is given.
const DefaultFileName = "designer.toml"

// Config is the root of designer.toml.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Refresh RefreshConfig `toml:"refresh"`
	API     APIConfig     `toml:"api"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis", "mongo".
	Backend string `toml:"backend"`
	// Dir is the project directory for the file backend. Empty uses the
	// per-user default.
	Dir string `toml:"dir"`
	// Addr is the Redis address for the redis backend.
	Addr string `toml:"addr"`
	// Password is the Redis password, if any.
	Password string `toml:"password"`
	// DB is the Redis logical database.
	DB int `toml:"db"`
	// URI is the MongoDB connection string for the mongo backend.
	URI string `toml:"uri"`
	// Database is the MongoDB database name.
	Database string `toml:"database"`
}

// RefreshConfig tunes how external change bursts are coalesced.
type RefreshConfig struct {
	// DebounceMS is the quiescent interval, in milliseconds, before a
	// refresh pass fires.
	DebounceMS int `toml:"debounce_ms"`
}

// Debounce returns the debounce interval as a duration.
func (r RefreshConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMS) * time.Millisecond
}

// APIConfig configures the read-only inspection server.
type APIConfig struct {
	// Listen is the host:port the server binds to.
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:   StoreConfig{Backend: "file"},
		Refresh: RefreshConfig{DebounceMS: 150},
		API:     APIConfig{Listen: "127.0.0.1:8844"},
	}
}

// Load reads a config file, layered over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis", "mongo":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Refresh.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative")
	}
	return nil
}
