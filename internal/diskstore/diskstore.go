// Package diskstore implements the file-backed persistent cache. Each
// memoised function owns a subdirectory of the cache base directory, and
// each fingerprint maps to a set of files sharing the fingerprint as stem:
// the value (.out), the optional stored key (.key), optional metadata
// (.meta), and a transient zero-length write lock (.lock).
//
// Concurrency control is the lock-file protocol: readers poll until no lock
// exists for the target fingerprint, and writers atomically test-and-create
// the lock, aborting silently when either the lock or the value file already
// exists. A crash between lock creation and removal leaves an orphaned lock
// that starves that fingerprint until cleared by hand; this is a known
// durability gap of the protocol.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/store"
)

// File roles, distinguished by extension on the fingerprint stem.
const (
	extOut  = ".out"
	extKey  = ".key"
	extMeta = ".meta"
	extLock = ".lock"
)

// ErrLockTimeout is returned when a configured maximum lock wait elapses
// while a write lock is still present. With no maximum configured, readers
// wait indefinitely (or until the context is cancelled).
var ErrLockTimeout = errors.New("diskstore: timed out waiting for write lock")

// cacheFile matches the files this store manages: a base64url fingerprint
// stem plus one of the known extensions. Clear refuses to touch anything
// else.
var cacheFile = regexp.MustCompile(`^[-_0-9A-Za-z]+(\.out|\.key|\.meta|\.lock)$`)

// UnrecognizedFileError reports a foreign file found in the cache directory
// during Clear. Deleting files the cache did not create would be data loss,
// so the operation stops instead.
type UnrecognizedFileError struct {
	Path string
}

func (e *UnrecognizedFileError) Error() string {
	return "diskstore: unrecognized file in cache directory: " + e.Path
}

// LockOptions tunes the reader-side poll loop.
type LockOptions struct {
	// PollInterval is the delay between lock checks. Zero means 100ms.
	PollInterval time.Duration

	// MaxWait bounds the total wait for a lock to clear. Zero means wait
	// until the lock disappears or the context is cancelled.
	MaxWait time.Duration
}

func (l LockOptions) interval() time.Duration {
	if l.PollInterval <= 0 {
		return 100 * time.Millisecond
	}
	return l.PollInterval
}

// Store is a file-backed store.Backend for one function's namespace.
type Store struct {
	dir  string
	opts store.Options
	lock LockOptions
}

var _ store.Backend = (*Store)(nil)

// New opens (creating if needed) the cache directory for opts.Funcname
// under baseDir.
func New(baseDir string, opts store.Options, lock LockOptions) (*Store, error) {
	dir := filepath.Join(baseDir, opts.Funcname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diskstore: creating cache directory: %w", err)
	}
	return &Store{dir: dir, opts: opts, lock: lock}, nil
}

// Dir returns the directory this store reads and writes.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(fp, ext string) string {
	return filepath.Join(s.dir, fp+ext)
}

// waitUnlocked blocks while a write is in progress for fp. A present lock
// means "not yet readable"; removal by the writer is what unblocks us.
func (s *Store) waitUnlocked(ctx context.Context, fp string) error {
	lockPath := s.path(fp, extLock)

	var deadline time.Time
	if s.lock.MaxWait > 0 {
		deadline = time.Now().Add(s.lock.MaxWait)
	}

	for {
		_, err := os.Stat(lockPath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("diskstore: checking lock: %w", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.lock.interval()):
		}
	}
}

func (s *Store) Get(ctx context.Context, fp string, key keys.Key) (string, error) {
	if err := s.waitUnlocked(ctx, fp); err != nil {
		return "", err
	}
	if err := s.opts.VerifyRecovered(fp, key); err != nil {
		return "", err
	}

	value, err := os.ReadFile(s.path(fp, extOut))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &store.NotFoundError{Key: key}
	}
	if err != nil {
		return "", fmt.Errorf("diskstore: reading value: %w", err)
	}

	if s.opts.StoreKey {
		if err := s.verifyStoredKey(fp, key); err != nil {
			return "", err
		}
	}
	return string(value), nil
}

func (s *Store) verifyStoredKey(fp string, key keys.Key) error {
	encoded, err := os.ReadFile(s.path(fp, extKey))
	if errors.Is(err, fs.ErrNotExist) {
		// A value written before key storage was enabled has no key file;
		// there is nothing to verify against.
		return nil
	}
	if err != nil {
		return fmt.Errorf("diskstore: reading stored key: %w", err)
	}
	stored, err := s.opts.DecodeKey(strings.TrimSuffix(string(encoded), "\n"))
	if err != nil {
		return err
	}
	return store.VerifyStored(stored, key)
}

func (s *Store) Set(ctx context.Context, fp string, key keys.Key, value string) error {
	type write struct {
		path string
		data string
	}
	// Encode everything before taking the lock; an encoding failure must
	// not leave a lock behind.
	writes := []write{}
	if s.opts.StoreKey {
		encoded, err := s.opts.Codec.Encode(key.Wire())
		if err != nil {
			return err
		}
		writes = append(writes, write{s.path(fp, extKey), encoded})
	}
	if s.opts.Metadata != nil {
		writes = append(writes, write{s.path(fp, extMeta), s.opts.Metadata()})
	}
	// The value file goes last: its appearance is what makes the entry
	// observable, so every auxiliary file must already be in place.
	writes = append(writes, write{s.path(fp, extOut), value})

	lockPath := s.path(fp, extLock)
	if exists(lockPath) {
		return nil // another writer in flight
	}
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil // lost the test-and-create race
	}
	if err != nil {
		return fmt.Errorf("diskstore: creating lock: %w", err)
	}
	lock.Close()
	defer os.Remove(lockPath)

	// The entry check happens under the lock: a racing writer may have
	// completed a full write-and-unlock cycle since the check above.
	if exists(s.path(fp, extOut)) {
		return nil
	}

	for _, w := range writes {
		if err := writeAtomic(w.path, w.data); err != nil {
			return err
		}
	}
	return nil
}

// writeAtomic writes through a uniquely named temp file and renames it into
// place, so a reader never observes a half-written file.
func writeAtomic(path, data string) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return fmt.Errorf("diskstore: writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("diskstore: publishing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, fp string, key keys.Key) error {
	if err := s.waitUnlocked(ctx, fp); err != nil {
		return err
	}

	err := os.Remove(s.path(fp, extOut))
	if errors.Is(err, fs.ErrNotExist) {
		return &store.NotFoundError{Key: key}
	}
	if err != nil {
		return fmt.Errorf("diskstore: deleting value: %w", err)
	}
	for _, ext := range []string{extKey, extMeta} {
		if err := os.Remove(s.path(fp, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("diskstore: deleting %s record: %w", ext, err)
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("diskstore: listing cache directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), extOut) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("diskstore: listing cache directory: %w", err)
	}
	for _, e := range entries {
		if !cacheFile.MatchString(e.Name()) {
			return &UnrecognizedFileError{Path: filepath.Join(s.dir, e.Name())}
		}
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("diskstore: clearing cache: %w", err)
		}
	}
	return nil
}

func (s *Store) HasKeys() bool {
	return s.opts.StoreKey || s.opts.Unhasher != nil
}

// Keys snapshots the value files present at call time and recovers a key
// for each, preferring fingerprint inversion over stored key records.
func (s *Store) Keys(ctx context.Context) ([]keys.Key, error) {
	if !s.HasKeys() {
		return nil, store.ErrKeylessCache
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("diskstore: listing cache directory: %w", err)
	}

	var out []keys.Key
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), extOut) {
			continue
		}
		fp := strings.TrimSuffix(e.Name(), extOut)

		var key keys.Key
		if s.opts.Unhasher != nil {
			key, err = s.opts.Unhasher.Unfingerprint(fp)
			if err != nil {
				return nil, err
			}
		} else {
			encoded, err := os.ReadFile(s.path(fp, extKey))
			if errors.Is(err, fs.ErrNotExist) {
				continue // value predates key storage; unrecoverable
			}
			if err != nil {
				return nil, fmt.Errorf("diskstore: reading stored key: %w", err)
			}
			key, err = s.opts.DecodeKey(strings.TrimSuffix(string(encoded), "\n"))
			if err != nil {
				return nil, err
			}
		}
		out = append(out, key)
	}
	return out, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
