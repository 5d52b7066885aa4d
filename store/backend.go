// Package store defines the contract shared by the persistent cache
// backends, the error taxonomy they surface, and the cache-address syntax
// that selects between them. The concrete implementations live in
// internal/diskstore (local filesystem) and internal/mongostore (document
// store over HTTP); the persist package constructs one or the other from a
// parsed address.
package store

import (
	"context"

	"github.com/mtorpey/pypersist/codec"
	"github.com/mtorpey/pypersist/keys"
)

// Backend is a keyed value store addressed by fingerprint. One backend
// instance manages the namespace of a single memoised function.
//
// Values, stored keys, and metadata travel in their codec-encoded string
// form; backends never interpret them beyond the key-verification pass.
type Backend interface {
	// Get returns the encoded value stored under fp. The supplied key is
	// verified first: if an Unhasher is configured the fingerprint is
	// inverted and compared, and if key storage is enabled the stored key is
	// compared. Either mismatch is a *HashCollisionError, raised before
	// existence is considered. A missing entry is a *NotFoundError.
	Get(ctx context.Context, fp string, key keys.Key) (string, error)

	// Set stores value (and, per options, the key and fresh metadata) under
	// fp. If an entry already exists, or a concurrent write is in flight for
	// fp, Set silently does nothing: first writer wins. Readers never
	// observe a partial entry.
	Set(ctx context.Context, fp string, key keys.Key, value string) error

	// Delete removes the entry for fp along with any stored key and
	// metadata. A missing entry is a *NotFoundError carrying the supplied
	// key.
	Delete(ctx context.Context, fp string, key keys.Key) error

	// Count returns the number of stored entries, judged by the presence of
	// a value record only.
	Count(ctx context.Context) (int, error)

	// Clear removes every entry in this backend's namespace. Clearing an
	// empty cache is not an error.
	Clear(ctx context.Context) error

	// Keys returns a snapshot of the cached keys, recovered from stored key
	// records or by inverting fingerprints. Only valid when HasKeys reports
	// true; otherwise ErrKeylessCache.
	Keys(ctx context.Context) ([]keys.Key, error)

	// HasKeys reports whether this backend can recover keys for iteration.
	HasKeys() bool
}

// Options carries the per-function settings every backend needs: how values
// are encoded, whether keys are stored beside them, and how metadata is
// produced.
type Options struct {
	// Funcname is the storage namespace for one memoised function,
	// already sanitised for use as a directory or URL path segment.
	Funcname string

	// Namespace tags remote records so several projects can share one
	// document collection.
	Namespace string

	// Codec encodes and decodes values and stored keys.
	Codec codec.Codec

	// Unhasher, when set, inverts fingerprints back to keys. Enables key
	// iteration and the fingerprint-inversion verification pass.
	Unhasher keys.Unhasher

	// StoreKey persists the canonical key beside each value and verifies it
	// on every read, turning silent fingerprint collisions into
	// *HashCollisionError.
	StoreKey bool

	// Metadata, when set, is invoked on each write and its result persisted
	// with the entry.
	Metadata func() string
}

// VerifyRecovered runs the fingerprint-inversion check: if an Unhasher is
// configured, the key recovered from fp must equal the supplied key. This is
// a property of the key space, not of any particular entry, so backends call
// it before checking existence.
func (o Options) VerifyRecovered(fp string, key keys.Key) error {
	if o.Unhasher == nil {
		return nil
	}
	recovered, err := o.Unhasher.Unfingerprint(fp)
	if err != nil {
		return err
	}
	if !recovered.Equal(key) {
		return &HashCollisionError{StoredKey: recovered, SuppliedKey: key}
	}
	return nil
}

// DecodeKey decodes a stored key string back into a canonical key.
func (o Options) DecodeKey(encoded string) (keys.Key, error) {
	wire, err := o.Codec.Decode(encoded)
	if err != nil {
		return nil, err
	}
	return keys.FromWire(wire)
}

// VerifyStored compares a decoded stored key against the supplied key,
// surfacing a collision when the fingerprint resolved to someone else's key.
func VerifyStored(stored, supplied keys.Key) error {
	if !stored.Equal(supplied) {
		return &HashCollisionError{StoredKey: stored, SuppliedKey: supplied}
	}
	return nil
}
