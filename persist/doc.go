// Package persist wraps deterministic functions with persistent
// memoisation: results are computed once, stored durably, and reused across
// calls and across process restarts.
//
// # Overview
//
// A memoised function is a Func, built from the target computation plus a
// Config describing the function's signature and where results live:
//
//	triple, err := persist.New(
//		func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
//			return 3 * args[0].(int), nil
//		},
//		persist.Config{
//			Funcname:  "triple",
//			Cache:     "file://persist",
//			Signature: keys.Signature{Params: []string{"x"}},
//		},
//	)
//
//	v, err := triple.Call(ctx, 3) // computes and stores
//	v, err = triple.Call(ctx, 3)  // reads the stored result
//
// Each call's arguments are normalised into a canonical key (see the keys
// package), the key is fingerprinted, and the fingerprint addresses an entry
// in the configured backend. On a miss the target runs and its result is
// persisted; on a hit the stored result is decoded and returned without
// running the target.
//
// # Cache addresses
//
// The Cache field selects the backend: "file://<dir>" stores entries as
// files under <dir>/<funcname>/, and "mongodb://<url>" stores them in a
// document collection behind a REST server. An address without a scheme is
// a local directory.
//
// # Concurrency
//
// Any number of goroutines or processes may call the same memoised function.
// Persisted state follows first-writer-wins: concurrent misses may each run
// the target, but exactly one result is stored per fingerprint, and the
// losers return their own computed values. The file backend coordinates
// through per-fingerprint lock files; the document store relies on the
// server's atomic insert and version-token delete.
//
// # Direct cache access
//
// Func.Cache() exposes the underlying entries by canonical key: Get, Set,
// Delete, Len, Clear, and Keys when keys are recoverable (StoreKey enabled
// or an Unhasher configured). Pre-seeding a result is a Set with the key the
// normaliser would produce:
//
//	key, _ := triple.Key([]any{10}, nil)
//	err = triple.Cache().Set(ctx, key, 30)
//
// # Errors
//
// Everything surfaces synchronously to the caller: *keys.ArgumentError when
// a call does not bind to the declared signature, *codec.SerializationError
// when a value cannot cross the storage boundary, *store.HashCollisionError
// when a fingerprint resolves to a different key than supplied, and
// *store.BackendError / *store.ConnectionError from the remote backend.
// Nothing is logged and swallowed.
package persist
