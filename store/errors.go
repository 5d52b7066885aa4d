package store

import (
	"errors"
	"fmt"

	"github.com/mtorpey/pypersist/keys"
)

// ErrNotFound matches any *NotFoundError via errors.Is. The memoisation
// coordinator treats it as "compute and store"; it never reaches a caller of
// the wrapped function.
var ErrNotFound = errors.New("store: entry not found")

// ErrKeylessCache is returned by Keys when neither key storage nor an
// unhasher is configured, so keys cannot be recovered from the backend.
var ErrKeylessCache = errors.New("store: cache does not store keys and has no unhasher; keys cannot be iterated")

// NotFoundError reports a lookup or delete for a key with no stored value.
type NotFoundError struct {
	Key keys.Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: no entry for key %s", e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// HashCollisionError reports a fingerprint that resolves to a different
// logical key than the one supplied, either through the stored-key record or
// through fingerprint inversion. It is always surfaced: resolving it
// silently would return the wrong cached value.
type HashCollisionError struct {
	StoredKey   keys.Key
	SuppliedKey keys.Key
}

func (e *HashCollisionError) Error() string {
	return fmt.Sprintf("store: fingerprint collision: stored key %s, supplied key %s",
		e.StoredKey, e.SuppliedKey)
}

// BackendError reports an unexpected response from a remote store. The core
// never retries; retry policy belongs to the caller.
type BackendError struct {
	Status int
	Reason string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("store: backend responded %d: %s", e.Status, e.Reason)
}

// ConnectionError reports an unreachable remote store.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: cannot reach %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
