package memory

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Factory is the in-memory IndexedDB.
type Factory struct {
	mu          *sync.Mutex
	dbs         map[string]*database
	noEnumerate bool
	failDelete  map[string]bool
}

var _ storage.IndexedDB = (*Factory)(nil)

type database struct {
	name    string
	version int
	stores  map[string]*objectStore
}

type entry struct {
	key   idbKey
	value json.RawMessage
}

type objectStore struct {
	schema  storage.StoreSchema
	entries []entry
	nextKey float64
}

// Databases lists databases sorted by name.
func (f *Factory) Databases(context.Context) ([]storage.DatabaseInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.noEnumerate {
		return nil, errors.Wrap(storage.ErrUnsupported, "enumerating databases")
	}

	out := make([]storage.DatabaseInfo, 0, len(f.dbs))
	for _, db := range f.dbs {
		out = append(out, storage.DatabaseInfo{Name: db.name, Version: db.version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Open returns a handle to an existing database.
func (f *Factory) Open(_ context.Context, name string) (storage.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	db, ok := f.dbs[name]
	if !ok {
		return nil, errors.Wrapf(storage.ErrNotFound, "database %q", name)
	}
	return &handle{mu: f.mu, db: db}, nil
}

// FailDeletes makes Delete of the named databases fail with
// storage.ErrBlocked, leaving any existing database in place.
func (f *Factory) FailDeletes(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete == nil {
		f.failDelete = map[string]bool{}
	}
	for _, n := range names {
		f.failDelete[n] = true
	}
}

// Delete removes a database; deleting a missing database succeeds.
func (f *Factory) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[name] {
		return errors.Wrapf(storage.ErrBlocked, "deleting database %q", name)
	}
	delete(f.dbs, name)
	return nil
}

// Create makes a new database with all stores and indexes.
func (f *Factory) Create(_ context.Context, name string, version int, stores []storage.StoreSchema) (storage.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if version < 1 {
		return nil, errors.Wrapf(storage.ErrData, "version %d", version)
	}
	if _, exists := f.dbs[name]; exists {
		return nil, errors.Wrapf(storage.ErrConstraint, "database %q already exists", name)
	}

	db := &database{name: name, version: version, stores: map[string]*objectStore{}}
	for _, s := range stores {
		if _, dup := db.stores[s.Name]; dup {
			return nil, errors.Wrapf(storage.ErrConstraint, "store %q declared twice", s.Name)
		}
		if s.AutoIncrement && s.KeyPath.IsCompound() {
			return nil, errors.Wrapf(storage.ErrData, "store %q: key generator with compound key path", s.Name)
		}
		db.stores[s.Name] = &objectStore{schema: s, nextKey: 1}
	}
	f.dbs[name] = db
	return &handle{mu: f.mu, db: db}, nil
}

// Len returns the number of databases.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dbs)
}

type handle struct {
	mu     *sync.Mutex
	db     *database
	closed bool
}

func (h *handle) Name() string { return h.db.name }

func (h *handle) Version() int { return h.db.version }

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Stores returns schemas sorted by store name.
func (h *handle) Stores(context.Context) ([]storage.StoreSchema, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("database is closed")
	}
	out := make([]storage.StoreSchema, 0, len(h.db.stores))
	for _, s := range h.db.stores {
		schema := s.schema
		schema.Indexes = slices.Clone(schema.Indexes)
		out = append(out, schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (h *handle) Scan(_ context.Context, store string, fn storage.ScanFunc) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errors.New("database is closed")
	}
	s, ok := h.db.stores[store]
	if !ok {
		h.mu.Unlock()
		return errors.Wrapf(storage.ErrNotFound, "store %q", store)
	}
	entries := slices.Clone(s.entries)
	h.mu.Unlock()

	for _, e := range entries {
		if err := fn(e.key.marshal(), e.value); err != nil {
			return err
		}
	}
	return nil
}

func (h *handle) Write(_ context.Context, store string, records []snapshot.Record) ([]error, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("database is closed")
	}
	s, ok := h.db.stores[store]
	if !ok {
		return nil, errors.Wrapf(storage.ErrNotFound, "store %q", store)
	}

	errs := make([]error, len(records))
	for i, r := range records {
		errs[i] = s.add(r)
	}
	return errs, nil
}

// add places one record following IndexedDB add() semantics.
func (s *objectStore) add(r snapshot.Record) error {
	value, err := decodeValue(r.Value)
	if err != nil {
		return err
	}

	kp := s.schema.KeyPath
	raw := r.Value

	var key idbKey
	switch {
	case !kp.IsNone():
		if r.HasKey() {
			return errors.Wrap(storage.ErrData, "explicit key given for a store with in-line keys")
		}
		k, found, err := extractKey(value, kp)
		if err != nil {
			return err
		}
		if found {
			key = k
			break
		}
		if !s.schema.AutoIncrement {
			return errors.Wrapf(storage.ErrData, "value has no key at %s", kp)
		}
		injected, ok := injectKey(value, kp.Paths()[0], s.nextKey)
		if !ok {
			return errors.Wrapf(storage.ErrData, "cannot store generated key at %s", kp)
		}
		if raw, err = json.Marshal(injected); err != nil {
			return errors.Wrap(storage.ErrData, "re-encoding value")
		}
		value = injected
		key = idbKey{kind: kindNumber, num: s.nextKey}
	case r.HasKey():
		k, err := parseKey(r.Key)
		if err != nil {
			return err
		}
		key = k
	case s.schema.AutoIncrement:
		key = idbKey{kind: kindNumber, num: s.nextKey}
	default:
		return errors.Wrap(storage.ErrData, "no key and no key generator")
	}

	pos, exists := s.find(key)
	if exists {
		return errors.Wrapf(storage.ErrConstraint, "key %s already exists", key.marshal())
	}
	if err := s.checkUnique(value); err != nil {
		return err
	}

	if s.schema.AutoIncrement && key.kind == kindNumber && key.num >= s.nextKey {
		s.nextKey = math.Floor(key.num) + 1
	}
	s.entries = slices.Insert(s.entries, pos, entry{key: key, value: slices.Clone(raw)})
	return nil
}

func (s *objectStore) find(key idbKey) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return compareKeys(s.entries[i].key, key) >= 0
	})
	return i, i < len(s.entries) && compareKeys(s.entries[i].key, key) == 0
}

func (s *objectStore) checkUnique(value any) error {
	for _, idx := range s.schema.Indexes {
		if !idx.Unique {
			continue
		}
		keys := indexKeys(value, idx)
		if len(keys) == 0 {
			continue
		}
		for _, e := range s.entries {
			existing, err := decodeValue(e.value)
			if err != nil {
				continue
			}
			for _, ek := range indexKeys(existing, idx) {
				for _, k := range keys {
					if compareKeys(ek, k) == 0 {
						return errors.Wrapf(storage.ErrConstraint, "unique index %q", idx.Name)
					}
				}
			}
		}
	}
	return nil
}
