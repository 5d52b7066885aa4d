// Package keys defines the canonical key model used for persistent
// memoisation, along with the two transformations applied to every call:
// normalising call arguments into a canonical key, and fingerprinting that
// key into a short storage-safe identifier.
//
// # Canonical keys
//
// A Key is an ordered list of (parameter name, value) pairs, sorted by name.
// Two calls are cache-equivalent exactly when their keys are equal. Keys are
// compared through their canonical byte encoding rather than through Go value
// identity, so a key built from live arguments compares equal to the same key
// after a round trip through a storage codec (an int that comes back as an
// int64 still matches).
//
// # Normalisation
//
// Normalize binds positional arguments to declared parameter names, merges
// keyword arguments, drops any binding equal to its declared default, and
// sorts the result. That makes the key independent of call syntax:
//
//	sig := keys.Signature{
//		Params:   []string{"x", "y", "z"},
//		Defaults: map[string]any{"z": 1},
//	}
//
//	keys.Normalize(sig, []any{1}, map[string]any{"y": 2})
//	keys.Normalize(sig, nil, map[string]any{"y": 2, "x": 1})
//	keys.Normalize(sig, []any{1, 2, 1}, nil)
//
// all produce (("x", 1), ("y", 2)): the defaulted z is dropped and keyword
// order is irrelevant. Extra positional arguments are collected under a
// synthetic "*name" pair when the signature declares a variadic parameter;
// otherwise they are an *ArgumentError, as is an unknown keyword or a
// positional/keyword conflict with different values.
//
// # Fingerprints
//
// A Hasher turns a key into a string safe for use as a file name stem or URL
// segment. The default SHA256Hasher digests the canonical encoding and
// returns 43 characters of unpadded base64url. Distinct keys may in principle
// collide; the store package verifies stored keys against supplied keys when
// key storage is enabled, and an optional Unhasher lets simple schemes
// recover the key from the fingerprint itself.
package keys
