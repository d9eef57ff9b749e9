// Package config loads the node's TOML configuration file and exposes
// the meta_db-backed flags the request-handling core consults at
// runtime: http_logging, api_compat, subfield_queries and the internal
// API secret.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/meshchain/meshnode/internal/params"
)

// Config is the on-disk configuration shape.
type Config struct {
	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string `toml:"http_addr"`

	// DataDir is where the node keeps its lock file and local state.
	DataDir string `toml:"data_dir"`

	// P2PPort is read from the file but not consulted by the HTTP API,
	// which assigns params.DefaultP2PPort to peers that omit x-p2p-port.
	P2PPort uint16 `toml:"p2p_port"`

	HTTPLogging     bool   `toml:"http_logging"`
	APICompat       bool   `toml:"api_compat"`
	SubfieldQueries bool   `toml:"subfield_queries"`
	InternalSecret  string `toml:"internal_api_secret"`

	// MaxBodySize overrides the default request body cap when non-zero.
	MaxBodySize int64 `toml:"max_body_size"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":1984",
		DataDir:         "meshnode-data",
		P2PPort:         params.DefaultP2PPort,
		APICompat:       true,
		SubfieldQueries: true,
		MaxBodySize:     params.MaxBodySize,
	}
}

// Load reads path into a Config, starting from Defaults. Unknown keys
// are rejected so a typoed flag fails loudly instead of silently using
// its default.
func Load(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	meta, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config: unknown key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}

// Store is the runtime view of the configuration: a concurrency-safe
// MetaDB implementation whose internal API secret can be rotated while
// the node runs; the other flags keep the values they were loaded with.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore wraps cfg in a Store.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) HTTPLogging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.HTTPLogging
}

func (s *Store) APICompat() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.APICompat
}

func (s *Store) SubfieldQueries() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.SubfieldQueries
}

func (s *Store) InternalAPISecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.InternalSecret
}

// SetInternalAPISecret rotates the privileged-endpoint secret.
func (s *Store) SetInternalAPISecret(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.InternalSecret = secret
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}
