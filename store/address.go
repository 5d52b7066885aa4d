package store

import (
	"fmt"
	"strings"
)

// Scheme selects which backend implementation a cache address names.
type Scheme string

const (
	// SchemeFile stores entries as files under a local directory.
	SchemeFile Scheme = "file"

	// SchemeMongoDB stores entries in a document collection behind an
	// HTTP REST server.
	SchemeMongoDB Scheme = "mongodb"
)

// Address is a parsed cache location: a scheme plus the scheme-specific
// remainder (a directory path for file, a server URL for mongodb).
type Address struct {
	Scheme Scheme
	Path   string
}

// ParseAddress splits a cache address of the form "scheme://path". An
// address without "://" is a local directory; "file://persist" and
// "persist" name the same cache. A mongodb path without its own scheme is
// reached over plain HTTP.
func ParseAddress(addr string) (Address, error) {
	scheme, path := Scheme(SchemeFile), addr
	if i := strings.Index(addr, "://"); i >= 0 {
		scheme, path = Scheme(addr[:i]), addr[i+len("://"):]
	}

	switch scheme {
	case SchemeFile:
	case SchemeMongoDB:
		if !strings.Contains(path, "://") {
			path = "http://" + path
		}
	default:
		return Address{}, fmt.Errorf("store: unknown cache scheme %q in address %q", scheme, addr)
	}

	if path == "" {
		return Address{}, fmt.Errorf("store: empty path in cache address %q", addr)
	}
	return Address{Scheme: scheme, Path: path}, nil
}
