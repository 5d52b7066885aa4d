// Package mongostore implements the persistent cache against a document
// store reached over an Eve-style REST API. Each function's entries live in
// a collection path under the server root; records are point-read by a hash
// filter, created with POST, and deleted by identifier with an If-Match
// version token so a concurrent replacement cannot be clobbered.
//
// Concurrency safety is delegated to the server: inserts are atomic and the
// unique hash constraint makes the duplicate insert of a racing writer a
// no-op, so no client-side locking exists here.
package mongostore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mtorpey/pypersist/keys"
	"github.com/mtorpey/pypersist/store"
)

// record is the wire shape of one cache entry. The underscore fields are
// assigned by the server.
type record struct {
	ID        string `json:"_id,omitempty"`
	Etag      string `json:"_etag,omitempty"`
	Funcname  string `json:"funcname"`
	Hash      string `json:"hash"`
	Namespace string `json:"namespace"`
	Result    string `json:"result"`
	Key       string `json:"key,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
	Comments  string `json:"comments,omitempty"`
}

// listing is the collection GET response: item payloads plus aggregate
// count metadata.
type listing struct {
	Items []record `json:"_items"`
	Meta  struct {
		Total int `json:"total"`
	} `json:"_meta"`
}

// Store is an HTTP-backed store.Backend for one function's namespace.
type Store struct {
	base   string // collection root: <server>/<funcname>
	client *http.Client
	opts   store.Options
}

var _ store.Backend = (*Store)(nil)

// New builds a store rooted at serverURL (already scheme-qualified by
// address parsing) for the function named in opts. A nil client uses
// http.DefaultClient.
func New(serverURL string, opts store.Options, client *http.Client) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{
		base:   strings.TrimRight(serverURL, "/") + "/" + opts.Funcname,
		client: client,
		opts:   opts,
	}
}

func (s *Store) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &store.ConnectionError{URL: req.URL.String(), Err: err}
	}
	return resp, nil
}

// getRecord point-reads the record for hash, or nil when none is stored.
func (s *Store) getRecord(ctx context.Context, hash string) (*record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+hash, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var rec record
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return nil, fmt.Errorf("mongostore: decoding record: %w", err)
		}
		return &rec, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, backendError(resp)
	}
}

func (s *Store) Get(ctx context.Context, fp string, key keys.Key) (string, error) {
	if err := s.opts.VerifyRecovered(fp, key); err != nil {
		return "", err
	}
	rec, err := s.getRecord(ctx, fp)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", &store.NotFoundError{Key: key}
	}
	if s.opts.StoreKey && rec.Key != "" {
		stored, err := s.opts.DecodeKey(rec.Key)
		if err != nil {
			return "", err
		}
		if err := store.VerifyStored(stored, key); err != nil {
			return "", err
		}
	}
	return rec.Result, nil
}

func (s *Store) Set(ctx context.Context, fp string, key keys.Key, value string) error {
	rec := record{
		Funcname:  s.opts.Funcname,
		Hash:      fp,
		Namespace: s.opts.Namespace,
		Result:    value,
		Comments:  store.CommentFromContext(ctx),
	}
	if s.opts.StoreKey {
		encoded, err := s.opts.Codec.Encode(key.Wire())
		if err != nil {
			return err
		}
		rec.Key = encoded
	}
	if s.opts.Metadata != nil {
		rec.Metadata = s.opts.Metadata()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("mongostore: encoding record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// The unique hash constraint rejected a duplicate insert: another
		// writer persisted first, which is the no-op case.
		return nil
	default:
		return backendError(resp)
	}
}

func (s *Store) Delete(ctx context.Context, fp string, key keys.Key) error {
	rec, err := s.getRecord(ctx, fp)
	if err != nil {
		return err
	}
	if rec == nil {
		return &store.NotFoundError{Key: key}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.base+"/"+rec.ID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("If-Match", rec.Etag)

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return backendError(resp)
}

func (s *Store) list(ctx context.Context) (*listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var l listing
		if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
			return nil, fmt.Errorf("mongostore: decoding listing: %w", err)
		}
		return &l, nil
	case http.StatusNotFound:
		return &listing{}, nil
	default:
		return nil, backendError(resp)
	}
}

func (s *Store) Count(ctx context.Context) (int, error) {
	l, err := s.list(ctx)
	if err != nil {
		return 0, err
	}
	return l.Meta.Total, nil
}

func (s *Store) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.base, nil)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 404 means the collection is already empty, which clear treats as
	// success.
	if resp.StatusCode == http.StatusNotFound ||
		(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	return backendError(resp)
}

func (s *Store) HasKeys() bool {
	return s.opts.StoreKey || s.opts.Unhasher != nil
}

// Keys snapshots the collection and recovers one key per record, from the
// stored key when present and by inverting the hash field otherwise.
func (s *Store) Keys(ctx context.Context) ([]keys.Key, error) {
	if !s.HasKeys() {
		return nil, store.ErrKeylessCache
	}
	l, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]keys.Key, 0, len(l.Items))
	for _, rec := range l.Items {
		var key keys.Key
		switch {
		case s.opts.StoreKey && rec.Key != "":
			key, err = s.opts.DecodeKey(rec.Key)
		case s.opts.Unhasher != nil:
			key, err = s.opts.Unhasher.Unfingerprint(rec.Hash)
		default:
			continue // record predates key storage; unrecoverable
		}
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, nil
}

// backendError drains enough of the response to report why the server
// refused the request.
func backendError(resp *http.Response) error {
	reason := resp.Status
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 512)); err == nil && len(body) > 0 {
		reason = resp.Status + ": " + strings.TrimSpace(string(body))
	}
	return &store.BackendError{Status: resp.StatusCode, Reason: reason}
}
