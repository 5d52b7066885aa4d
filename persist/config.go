package persist

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mtorpey/pypersist/codec"
	"github.com/mtorpey/pypersist/internal/diskstore"
	"github.com/mtorpey/pypersist/internal/memfront"
	"github.com/mtorpey/pypersist/internal/mongostore"
	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/store"
)

// Target is the computation being memoised. It receives the call's
// positional and keyword arguments exactly as passed to Func.Call.
type Target func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// KeyFunc overrides argument normalisation entirely, producing the canonical
// key for a call. Useful when arguments carry state that should not (or
// cannot) be serialised, such as receiver objects.
type KeyFunc func(args []any, kwargs map[string]any) (keys.Key, error)

// DefaultCache is where results go when Config.Cache is empty.
const DefaultCache = "file://persist"

// DefaultNamespace tags remote records when Config.Namespace is empty.
const DefaultNamespace = "pypersist"

// Config describes one memoised function: its identity, signature, storage
// location, and the pluggable pieces of the key/identity pipeline. The zero
// value of every optional field selects the documented default.
type Config struct {
	// Funcname uniquely identifies this function within the cache. It is
	// required, and sanitised to a storage-safe snake_case form.
	Funcname string

	// Cache is the backend address: "file://<dir>", "mongodb://<url>", or a
	// bare directory path. Defaults to DefaultCache.
	Cache string

	// Signature declares parameter names and defaults for normalisation.
	// Ignored when Key is set.
	Signature keys.Signature

	// Key, when set, replaces signature-based normalisation.
	Key KeyFunc

	// StoreKey persists the canonical key beside each result and verifies
	// it on every read, catching fingerprint collisions.
	StoreKey bool

	// Codec serialises values (and stored keys). Defaults to codec.Msgpack.
	Codec codec.Codec

	// Hasher fingerprints canonical keys. Defaults to keys.SHA256Hasher.
	Hasher keys.Hasher

	// Unhasher optionally inverts fingerprints, enabling key iteration
	// without key storage. Must be the inverse of Hasher.
	Unhasher keys.Unhasher

	// Metadata, when set, runs on each write; its result is stored with the
	// entry. See TimestampMetadata.
	Metadata func() string

	// Namespace tags remote records. Defaults to DefaultNamespace.
	Namespace string

	// Lock tunes the file backend's lock-wait loop.
	Lock LockConfig

	// Memory, when non-nil, enables the in-process front layer.
	Memory *MemoryConfig

	// HTTPClient overrides the client used by the mongodb backend.
	HTTPClient *http.Client
}

// LockConfig mirrors the file backend's lock-wait options.
type LockConfig struct {
	// PollInterval is the delay between lock checks. Zero means 100ms.
	PollInterval time.Duration

	// MaxWait bounds the total wait on a write lock. Zero waits until the
	// lock clears or the context is cancelled.
	MaxWait time.Duration
}

// MemoryConfig mirrors the in-process layer's sizing options. Zero fields
// take the memfront defaults.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

// Validate checks the configuration before any backend is touched.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Funcname, validation.Required, validation.By(validFuncname)),
		validation.Field(&c.Cache, validation.Required, validation.By(validAddress)),
	)
}

func validFuncname(value any) error {
	name, _ := value.(string)
	if sanitizeFuncname(name) == "" {
		return errNoUsableFuncname
	}
	return nil
}

func validAddress(value any) error {
	addr, _ := value.(string)
	_, err := store.ParseAddress(addr)
	return err
}

// withDefaults fills every optional field, returning the effective config.
func (c Config) withDefaults() Config {
	if c.Cache == "" {
		c.Cache = DefaultCache
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Codec == nil {
		c.Codec = codec.Msgpack{}
	}
	if c.Hasher == nil {
		c.Hasher = keys.SHA256Hasher{}
	}
	return c
}

func (c Config) storeOptions() store.Options {
	return store.Options{
		Funcname:  sanitizeFuncname(c.Funcname),
		Namespace: c.Namespace,
		Codec:     c.Codec,
		Unhasher:  c.Unhasher,
		StoreKey:  c.StoreKey,
		Metadata:  c.Metadata,
	}
}

// openBackend constructs the backend the cache address selects.
func (c Config) openBackend() (store.Backend, error) {
	addr, err := store.ParseAddress(c.Cache)
	if err != nil {
		return nil, err
	}
	switch addr.Scheme {
	case store.SchemeMongoDB:
		return mongostore.New(addr.Path, c.storeOptions(), c.HTTPClient), nil
	default:
		return diskstore.New(addr.Path, c.storeOptions(), diskstore.LockOptions{
			PollInterval: c.Lock.PollInterval,
			MaxWait:      c.Lock.MaxWait,
		})
	}
}

func (c Config) openMemory() (*memfront.Layer, error) {
	if c.Memory == nil {
		return nil, nil
	}
	mc := memfront.DefaultConfig()
	if c.Memory.Capacity > 0 {
		mc.Capacity = c.Memory.Capacity
	}
	if c.Memory.NumShards > 0 {
		mc.NumShards = c.Memory.NumShards
	}
	if c.Memory.TTL > 0 {
		mc.TTL = c.Memory.TTL
	}
	if c.Memory.EvictionPercentage > 0 {
		mc.EvictionPercentage = c.Memory.EvictionPercentage
	}
	return memfront.New(mc)
}
