package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtorpey/pypersist/internal/memfront"
	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/store"
)

// Func is a memoised function. Each call is normalised to a canonical key,
// fingerprinted, and answered from the persistent backend when possible;
// otherwise the target runs and its result is persisted for every future
// call. Func is stateless per call and safe for concurrent use.
type Func struct {
	target  Target
	cfg     Config
	backend store.Backend
	mem     *memfront.Layer
}

// New builds a memoised function from the target computation and its
// configuration. The backend is opened eagerly so that a bad cache address
// or unreachable directory fails here rather than on first call.
func New(target Target, cfg Config) (*Func, error) {
	if target == nil {
		return nil, errors.New("persist: target function is nil")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := cfg.openBackend()
	if err != nil {
		return nil, err
	}
	mem, err := cfg.openMemory()
	if err != nil {
		return nil, err
	}
	return &Func{target: target, cfg: cfg, backend: backend, mem: mem}, nil
}

// memEntry is what the in-process layer holds per fingerprint: the decoded
// value together with the key it was stored under, so hits get the same
// collision verification the backends perform.
type memEntry struct {
	key   keys.Key
	value any
}

func (f *Func) memGet(fp string, key keys.Key) (any, bool, error) {
	if f.mem == nil {
		return nil, false, nil
	}
	v, ok := f.mem.Get(fp)
	if !ok {
		return nil, false, nil
	}
	ent := v.(memEntry)
	if !ent.key.Equal(key) {
		return nil, false, &store.HashCollisionError{StoredKey: ent.key, SuppliedKey: key}
	}
	return ent.value, true, nil
}

func (f *Func) memSet(fp string, key keys.Key, value any) {
	if f.mem == nil {
		return
	}
	f.mem.Set(fp, memEntry{key: key, value: value})
}

// Key returns the canonical key this Func derives for a call, using the
// configured KeyFunc or signature normalisation. Exposed so callers can
// address Cache entries for the same arguments.
func (f *Func) Key(args []any, kwargs map[string]any) (keys.Key, error) {
	if f.cfg.Key != nil {
		return f.cfg.Key(args, kwargs)
	}
	return keys.Normalize(f.cfg.Signature, args, kwargs)
}

// Call invokes the memoised function with positional arguments.
func (f *Func) Call(ctx context.Context, args ...any) (any, error) {
	return f.CallKw(ctx, args, nil)
}

// CallKw invokes the memoised function with positional and keyword
// arguments. The cached value is returned on a hit; on a miss the target
// runs and its result is both persisted and returned. Under a concurrent
// race only the first writer persists, but every caller still receives the
// value it computed.
func (f *Func) CallKw(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	key, err := f.Key(args, kwargs)
	if err != nil {
		return nil, err
	}
	fp, err := f.cfg.Hasher.Fingerprint(key)
	if err != nil {
		return nil, err
	}

	cached, ok, err := f.memGet(fp, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	encoded, err := f.backend.Get(ctx, fp, key)
	if err == nil {
		value, err := f.cfg.Codec.Decode(encoded)
		if err != nil {
			return nil, err
		}
		f.memSet(fp, key, value)
		return value, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	value, err := f.target(ctx, args, kwargs)
	if err != nil {
		return nil, err
	}
	encoded, err = f.cfg.Codec.Encode(value)
	if err != nil {
		return nil, err
	}
	if err := f.backend.Set(ctx, fp, key, encoded); err != nil {
		return nil, err
	}
	f.memSet(fp, key, value)
	return value, nil
}

// Clear removes every result this function has stored.
func (f *Func) Clear(ctx context.Context) error {
	if err := f.backend.Clear(ctx); err != nil {
		return err
	}
	if f.mem != nil {
		f.mem.Clear()
	}
	return nil
}

// Cache exposes the stored entries addressed by canonical key.
func (f *Func) Cache() *Cache {
	return &Cache{f: f}
}

// Call is the type-safe wrapper around Func.Call, mirroring how the
// package-level generic complements the any-typed method.
func Call[T any](ctx context.Context, f *Func, args ...any) (T, error) {
	result, err := f.Call(ctx, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	if result == nil {
		var zero T
		return zero, nil
	}
	v, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("persist: cached value has type %T, not the requested type", result)
	}
	return v, nil
}
