// Package memfront provides the optional in-process layer that sits in
// front of a persistent backend. It holds decoded values keyed by
// fingerprint so repeated calls in one process skip backend I/O and value
// decoding entirely.
//
// The layer is volatile and purely an optimisation: the coordinator writes
// and deletes through it, and on a miss always falls back to the backend.
// It cannot observe writes or deletes made by other processes before its
// entries expire, which is why it is off by default.
package memfront

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Config sizes the in-process layer.
type Config struct {
	// Capacity is the maximum number of entries held in memory.
	Capacity int

	// NumShards spreads entries across shards for concurrent access.
	NumShards int

	// TTL bounds how stale an in-memory entry can get relative to the
	// persistent store.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the layer
	// reaches capacity, between 1 and 100.
	EvictionPercentage int
}

// DefaultConfig returns the sizing used when the caller enables the layer
// without tuning it.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ConfigError reports an invalid memory layer setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "memfront: config field " + e.Field + " " + e.Message
}

// Validate checks the sizing parameters.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// Layer wraps a sturdyc client with the small surface the coordinator
// needs.
type Layer struct {
	client *sturdyc.Client[any]
}

// New builds a layer from cfg.
func New(cfg Config) (*Layer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Layer{
		client: sturdyc.New[any](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage),
	}, nil
}

// Get returns the decoded value held for fp, if any.
func (l *Layer) Get(fp string) (any, bool) {
	return l.client.Get(fp)
}

// Set records the decoded value for fp.
func (l *Layer) Set(fp string, value any) {
	l.client.Set(fp, value)
}

// Delete drops fp from the layer.
func (l *Layer) Delete(fp string) {
	l.client.Delete(fp)
}

// Clear drops every entry.
func (l *Layer) Clear() {
	for _, key := range l.client.ScanKeys() {
		l.client.Delete(key)
	}
}
