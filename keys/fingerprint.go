package keys

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/cespare/xxhash/v2"
)

// Hasher derives a fingerprint from a canonical key. Fingerprints must use
// only characters safe in a file name or URL segment. The same key always
// produces the same fingerprint; distinct keys may collide, which callers
// guard against with key storage (see the store package).
type Hasher interface {
	Fingerprint(key Key) (string, error)
}

// Unhasher is the optional inverse of a Hasher. When a hashing scheme is
// reversible, recovering the key from the fingerprint lets a cache enumerate
// its keys without storing them, and lets every lookup verify the fingerprint
// maps back to the expected key.
type Unhasher interface {
	Unfingerprint(fingerprint string) (Key, error)
}

// SHA256Hasher is the default fingerprinting scheme: SHA-256 over the key's
// canonical encoding, rendered as unpadded base64url. Fingerprints are
// exactly 43 characters drawn from [A-Za-z0-9_-].
type SHA256Hasher struct{}

func (SHA256Hasher) Fingerprint(key Key) (string, error) {
	canon, err := key.Canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// XXHasher fingerprints with xxhash64 for short, cheap identifiers: 11
// characters of unpadded base64url. The collision odds are far higher than
// SHA-256, so pair it with key storage.
type XXHasher struct{}

func (XXHasher) Fingerprint(key Key) (string, error) {
	canon, err := key.Canonical()
	if err != nil {
		return "", err
	}
	sum := xxhash.Sum64(canon)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
