package persist

import (
	"context"

	"github.com/mtorpey/pypersist/keys"
)

// Cache is the direct key/value surface of a memoised function's storage.
// Entries are addressed by canonical key; fingerprinting and collision
// verification happen on every operation exactly as they do for calls.
// Obtain one from Func.Cache.
type Cache struct {
	f *Func
}

func (c *Cache) fingerprint(key keys.Key) (string, error) {
	return c.f.cfg.Hasher.Fingerprint(key)
}

// Get returns the stored value for key, or a *store.NotFoundError carrying
// the key when nothing is stored.
func (c *Cache) Get(ctx context.Context, key keys.Key) (any, error) {
	fp, err := c.fingerprint(key)
	if err != nil {
		return nil, err
	}
	encoded, err := c.f.backend.Get(ctx, fp, key)
	if err != nil {
		return nil, err
	}
	return c.f.cfg.Codec.Decode(encoded)
}

// Set stores value under key. An existing entry for the same fingerprint is
// left untouched: like a racing writer, a direct Set never overwrites.
func (c *Cache) Set(ctx context.Context, key keys.Key, value any) error {
	fp, err := c.fingerprint(key)
	if err != nil {
		return err
	}
	encoded, err := c.f.cfg.Codec.Encode(value)
	if err != nil {
		return err
	}
	if err := c.f.backend.Set(ctx, fp, key, encoded); err != nil {
		return err
	}
	// The store may have kept an earlier entry, so the memory layer cannot
	// assume value is what is persisted.
	if c.f.mem != nil {
		c.f.mem.Delete(fp)
	}
	return nil
}

// Delete removes the entry for key; a missing entry is a
// *store.NotFoundError.
func (c *Cache) Delete(ctx context.Context, key keys.Key) error {
	fp, err := c.fingerprint(key)
	if err != nil {
		return err
	}
	if err := c.f.backend.Delete(ctx, fp, key); err != nil {
		return err
	}
	if c.f.mem != nil {
		c.f.mem.Delete(fp)
	}
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	return c.f.backend.Count(ctx)
}

// Clear removes every stored entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.f.Clear(ctx)
}

// HasKeys reports whether stored keys can be enumerated, which requires
// either key storage or an unhasher.
func (c *Cache) HasKeys() bool {
	return c.f.backend.HasKeys()
}

// Keys returns a snapshot of the stored canonical keys, in backend
// enumeration order. Calling it on a keyless cache returns
// store.ErrKeylessCache.
func (c *Cache) Keys(ctx context.Context) ([]keys.Key, error) {
	return c.f.backend.Keys(ctx)
}
