package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mtorpey/pypersist/codec"
	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/store"
)

// echoUnhasher "inverts" a fingerprint by returning a fixed key, standing in
// for a genuinely reversible hashing scheme.
type echoUnhasher struct {
	key keys.Key
	err error
}

func (u echoUnhasher) Unfingerprint(string) (keys.Key, error) { return u.key, u.err }

func TestNotFoundError_MatchesSentinel(t *testing.T) {
	var err error = &store.NotFoundError{Key: keys.New(keys.Pair{Name: "x", Value: 1})}
	if !errors.Is(err, store.ErrNotFound) {
		t.Error("NotFoundError does not match ErrNotFound")
	}
	if errors.Is(err, store.ErrKeylessCache) {
		t.Error("NotFoundError unexpectedly matches ErrKeylessCache")
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := &store.ConnectionError{URL: "http://localhost:5000", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError does not unwrap to its cause")
	}
}

func TestOptions_VerifyRecovered(t *testing.T) {
	key := keys.New(keys.Pair{Name: "x", Value: 1})
	other := keys.New(keys.Pair{Name: "x", Value: 2})

	t.Run("no unhasher passes", func(t *testing.T) {
		opts := store.Options{}
		if err := opts.VerifyRecovered("anything", key); err != nil {
			t.Errorf("VerifyRecovered() = %v, want nil", err)
		}
	})

	t.Run("matching key passes", func(t *testing.T) {
		opts := store.Options{Unhasher: echoUnhasher{key: key}}
		if err := opts.VerifyRecovered("fp", key); err != nil {
			t.Errorf("VerifyRecovered() = %v, want nil", err)
		}
	})

	t.Run("mismatch is a collision", func(t *testing.T) {
		opts := store.Options{Unhasher: echoUnhasher{key: other}}
		err := opts.VerifyRecovered("fp", key)
		var coll *store.HashCollisionError
		if !errors.As(err, &coll) {
			t.Fatalf("VerifyRecovered() = %v, want *HashCollisionError", err)
		}
		if !coll.StoredKey.Equal(other) || !coll.SuppliedKey.Equal(key) {
			t.Errorf("collision carries keys %s / %s, want %s / %s",
				coll.StoredKey, coll.SuppliedKey, other, key)
		}
	})

	t.Run("unhasher failure propagates", func(t *testing.T) {
		cause := fmt.Errorf("not invertible")
		opts := store.Options{Unhasher: echoUnhasher{err: cause}}
		if err := opts.VerifyRecovered("fp", key); !errors.Is(err, cause) {
			t.Errorf("VerifyRecovered() = %v, want %v", err, cause)
		}
	})
}

func TestVerifyStored(t *testing.T) {
	key := keys.New(keys.Pair{Name: "n", Value: "a"})
	same := keys.New(keys.Pair{Name: "n", Value: "a"})
	other := keys.New(keys.Pair{Name: "n", Value: "b"})

	if err := store.VerifyStored(same, key); err != nil {
		t.Errorf("VerifyStored(equal keys) = %v, want nil", err)
	}
	var coll *store.HashCollisionError
	if err := store.VerifyStored(other, key); !errors.As(err, &coll) {
		t.Errorf("VerifyStored(distinct keys) = %v, want *HashCollisionError", err)
	}
}

func TestOptions_DecodeKey(t *testing.T) {
	c := codec.Msgpack{}
	key := keys.New(
		keys.Pair{Name: "x", Value: int64(1)},
		keys.Pair{Name: "y", Value: "two"},
	)
	encoded, err := c.Encode(key.Wire())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	opts := store.Options{Codec: c}
	decoded, err := opts.DecodeKey(encoded)
	if err != nil {
		t.Fatalf("DecodeKey() error: %v", err)
	}
	if !decoded.Equal(key) {
		t.Errorf("DecodeKey() = %s, want %s", decoded, key)
	}

	if _, err := opts.DecodeKey("!!!"); err == nil {
		t.Error("DecodeKey(malformed) = nil error, want error")
	}
}
