package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"contextdb/pkg/logger"
)

// Namespaces for the two logical collections sharing one keyspace.
const (
	NamespaceHistory = "history"
	NamespaceContext = "context"
)

// ErrUnavailable marks storage-layer failures (connectivity, read/write
// errors). Callers surface it unchanged; it is never folded into an empty
// result, since that would be indistinguishable from "no data".
var ErrUnavailable = errors.New("storage unavailable")

// Store wraps a Pebble handle opened once at startup and passed into each
// component at construction. Keeping it as an explicit handle (instead of
// a package global) makes it substitutable in tests.
type Store struct {
	db   *pebble.DB
	path string

	// seq disambiguates message keys that share a nanosecond timestamp.
	seq uint64

	// locks serializes upsert-then-append per identity so two overlapping
	// exchanges for the same key cannot interleave a single logical write.
	locks sync.Map // ident -> *sync.Mutex
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying Pebble DB if present.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrUnavailable, err)
	}
	s.db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// Lock acquires the per-identity mutex and returns its release func.
// Callers hold it across an upsert-then-append sequence, never across a
// responder call.
func (s *Store) Lock(ident string) func() {
	v, _ := s.locks.LoadOrStore(ident, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func metaKey(ns, ident string) []byte {
	return []byte(ns + ":" + ident + ":meta")
}

func msgPrefix(ns, ident string) []byte {
	return []byte(ns + ":" + ident + ":msg:")
}

// GetMeta returns the metadata document for an identity, with ok=false
// (and no error) when the record does not exist.
func (s *Store) GetMeta(ns, ident string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	v, closer, err := s.db.Get(metaKey(ns, ident))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		logger.Error("get_meta_failed", "ns", ns, "ident", ident, "error", err)
		return nil, false, fmt.Errorf("%w: get meta: %v", ErrUnavailable, err)
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, true, nil
}

// SetMeta writes the metadata document for an identity.
func (s *Store) SetMeta(ns, ident string, data []byte) error {
	if s.db == nil {
		return fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	if err := s.db.Set(metaKey(ns, ident), data, pebble.Sync); err != nil {
		logger.Error("set_meta_failed", "ns", ns, "ident", ident, "error", err)
		return fmt.Errorf("%w: set meta: %v", ErrUnavailable, err)
	}
	return nil
}

// AppendMessage appends a message document under a new key whose sortable
// timestamp prefix makes lexicographic iteration equal insertion order.
// Appended entries are never rewritten.
func (s *Store) AppendMessage(ns, ident string, data []byte) error {
	if s.db == nil {
		return fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	ts := time.Now().UTC().UnixNano()
	n := atomic.AddUint64(&s.seq, 1)
	key := fmt.Sprintf("%s:%s:msg:%020d-%06d", ns, ident, ts, n)
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("append_message_failed", "ns", ns, "ident", ident, "key", key, "error", err)
		return fmt.Errorf("%w: append message: %v", ErrUnavailable, err)
	}
	logger.Debug("message_appended", "ns", ns, "ident", ident, "key", key)
	return nil
}

// ListMessages returns all message documents for an identity in insertion
// order. A missing record yields an empty slice, not an error.
func (s *Store) ListMessages(ns, ident string) ([][]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	prefix := msgPrefix(ns, ident)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: iterator: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	var out [][]byte
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		out = append(out, append([]byte(nil), iter.Value()...))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", ErrUnavailable, err)
	}
	return out, nil
}

// CountMessages returns the number of appended messages for an identity,
// 0 when no record exists.
func (s *Store) CountMessages(ns, ident string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	prefix := msgPrefix(ns, ident)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: iterator: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		n++
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("%w: iterate: %v", ErrUnavailable, err)
	}
	return n, nil
}

// ListIdents returns the identity tokens of every record in a namespace,
// by scanning metadata keys.
func (s *Store) ListIdents(ns string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	prefix := []byte(ns + ":")
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: iterator: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	var out []string
	suffix := []byte(":meta")
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		k := iter.Key()
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		if bytes.HasSuffix(k, suffix) {
			out = append(out, string(k[len(prefix):len(k)-len(suffix)]))
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", ErrUnavailable, err)
	}
	return out, nil
}
