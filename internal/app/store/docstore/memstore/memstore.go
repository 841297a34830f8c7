// Package memstore is an in-process docstore.Store.
//
// Transactions are optimistic: every document a transaction touches is
// versioned when first read, writes are buffered in the transaction, and the
// commit succeeds only if none of those versions moved. A failed validation
// re-runs the transaction body from the start, which gives serializable
// read-modify-write semantics over the touched documents.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"go.uber.org/zap"
)

// DefaultMaxAttempts is the transaction retry budget when none is configured.
const DefaultMaxAttempts = 5

type key struct {
	collection string
	id         string
}

type entry struct {
	doc     docstore.Doc
	version uint64
}

// CommitHook runs after a transaction body finished and before its commit is
// validated. Returning an error aborts the transaction with that error.
type CommitHook func(attempt int) error

// Store keeps documents in memory. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	docs    map[key]*entry
	clock   uint64
	writes  uint64
	commits uint64

	maxAttempts int
	hook        CommitHook
	log         *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAttempts sets the transaction retry budget.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithCommitHook installs a hook used by tests to interleave writers or
// inject commit failures.
func WithCommitHook(h CommitHook) Option {
	return func(s *Store) { s.hook = h }
}

// WithLogger sets the logger used for conflict diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:        make(map[key]*entry),
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Writes returns the number of document writes applied so far.
func (s *Store) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Commits returns the number of transactions that committed at least one write.
func (s *Store) Commits() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	e, ok := s.docs[key{collection, id}]
	s.mu.Unlock()
	if !ok {
		return nil, docstore.ErrNotFound
	}
	// Stored docs are never mutated in place, so cloning outside the lock is safe.
	return docstore.Clone(e.doc)
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	snap := make([]docstore.Doc, 0)
	for k, e := range s.docs {
		if k.collection == collection {
			snap = append(snap, e.doc)
		}
	}
	s.mu.Unlock()

	out := make([]docstore.Doc, 0, len(snap))
	for _, d := range snap {
		c, err := docstore.Clone(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) FindBy(ctx context.Context, collection, field string, value any) ([]docstore.Doc, error) {
	want, err := docstore.Normalize(value)
	if err != nil {
		return nil, err
	}
	all, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]docstore.Doc, 0)
	for _, d := range all {
		if reflect.DeepEqual(d[field], want) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := withID(data, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(key{collection, id}, d)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, ops ...docstore.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{collection, id}
	e, ok := s.docs[k]
	if !ok {
		return docstore.ErrNotFound
	}
	d, err := docstore.Clone(e.doc)
	if err != nil {
		return err
	}
	if err := apply(d, ops); err != nil {
		return err
	}
	s.putLocked(k, d)
	return nil
}

func (s *Store) putLocked(k key, d docstore.Doc) {
	s.clock++
	s.docs[k] = &entry{doc: d, version: s.clock}
	s.writes++
}

func (s *Store) versionLocked(k key) uint64 {
	if e, ok := s.docs[k]; ok {
		return e.version
	}
	return 0
}

func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxnFunc) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &txn{s: s, seen: map[key]uint64{}, view: map[key]docstore.Doc{}, dirty: map[key]bool{}}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if s.hook != nil {
			if err := s.hook(attempt); err != nil {
				return err
			}
		}
		if tx.commit() {
			return nil
		}
		s.log.Warn("memstore: transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts))
	}
	return docstore.ErrConflict
}

type txn struct {
	s     *Store
	seen  map[key]uint64
	view  map[key]docstore.Doc // nil value: document absent
	dirty map[key]bool
}

func (t *txn) load(k key) error {
	if _, ok := t.seen[k]; ok {
		return nil
	}
	t.s.mu.Lock()
	e, ok := t.s.docs[k]
	version := t.s.versionLocked(k)
	t.s.mu.Unlock()

	t.seen[k] = version
	if !ok {
		t.view[k] = nil
		return nil
	}
	d, err := docstore.Clone(e.doc)
	if err != nil {
		return err
	}
	t.view[k] = d
	return nil
}

func (t *txn) Get(ctx context.Context, collection, id string) (docstore.Doc, error) {
	k := key{collection, id}
	if err := t.load(k); err != nil {
		return nil, err
	}
	d := t.view[k]
	if d == nil {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(d)
}

func (t *txn) Set(ctx context.Context, collection, id string, data docstore.Doc) error {
	k := key{collection, id}
	if err := t.load(k); err != nil {
		return err
	}
	d, err := withID(data, id)
	if err != nil {
		return err
	}
	t.view[k] = d
	t.dirty[k] = true
	return nil
}

func (t *txn) Update(ctx context.Context, collection, id string, ops ...docstore.Op) error {
	k := key{collection, id}
	if err := t.load(k); err != nil {
		return err
	}
	d := t.view[k]
	if d == nil {
		return docstore.ErrNotFound
	}
	if err := apply(d, ops); err != nil {
		return err
	}
	t.dirty[k] = true
	return nil
}

func (t *txn) commit() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for k, v := range t.seen {
		if t.s.versionLocked(k) != v {
			return false
		}
	}
	if len(t.dirty) == 0 {
		return true
	}
	for k := range t.dirty {
		t.s.putLocked(k, t.view[k])
	}
	t.s.commits++
	return true
}

func withID(data docstore.Doc, id string) (docstore.Doc, error) {
	d, err := docstore.Clone(data)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = docstore.Doc{}
	}
	if existing, ok := d[docstore.IDField]; ok && existing != id && existing != "" {
		return nil, fmt.Errorf("memstore: document id %v does not match %q", existing, id)
	}
	d[docstore.IDField] = id
	return d, nil
}

var (
	_ docstore.Store = (*Store)(nil)
	_ docstore.Txn   = (*txn)(nil)
)
