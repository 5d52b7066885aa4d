// Package codec converts values to and from the reversible string form used
// by the storage backends. Encoded strings contain only base64url characters,
// so they can sit in a file next to a header line or inside a JSON document
// without escaping.
//
// The default Msgpack codec handles any value msgpack can represent; JSON is
// available when a store needs to be inspectable with standard tooling. Both
// are symmetric: Decode(Encode(v)) yields a value cache-equivalent to v.
// Generic decoding widens numbers (ints come back as int64, JSON numbers as
// float64); key comparison in the keys package is insensitive to that.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec is the reversible string serializer the backends store values and
// keys with. Implementations must produce strings free of newlines and
// filesystem-hostile characters.
type Codec interface {
	Encode(v any) (string, error)
	Decode(s string) (any, error)
}

// SerializationError wraps a value that could not be encoded or a stored
// string that could not be decoded.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return "codec: " + e.Op + ": " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Msgpack is the default codec: msgpack bytes wrapped in unpadded base64url.
type Msgpack struct{}

func (Msgpack) Encode(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", &SerializationError{Op: "encode", Err: err}
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (Msgpack) Decode(s string) (any, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	// Loose interface decoding widens integers to int64 and floats to
	// float64, so a value comes back in the same shape no matter how
	// compactly it was encoded.
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	return v, nil
}

// JSON encodes values as JSON wrapped in unpadded base64url. Slower and
// lossier than Msgpack (all numbers become float64) but trivially
// inspectable.
type JSON struct{}

func (JSON) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", &SerializationError{Op: "encode", Err: err}
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (JSON) Decode(s string) (any, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, &SerializationError{Op: "decode", Err: err}
	}
	return v, nil
}
