package snapshot

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Database is one captured IndexedDB database.
type Database struct {
	Version int
	Stores  map[string]ObjectStore
}

// ObjectStore is one object store with its schema and records in key order.
type ObjectStore struct {
	KeyPath       KeyPath
	AutoIncrement bool
	Indexes       []Index
	Records       []Record

	// Legacy is set when the store was parsed from the plain value array shape.
	Legacy bool
}

// EffectiveAutoIncrement reports whether the store must be recreated with a
// key generator. A store with no key path always gets one, since its
// records could not be placed otherwise.
func (s ObjectStore) EffectiveAutoIncrement() bool {
	return s.AutoIncrement || s.KeyPath.IsNone()
}

// Index describes a secondary index of an object store.
type Index struct {
	Name       string  `json:"name"`
	KeyPath    KeyPath `json:"keyPath"`
	Unique     bool    `json:"unique"`
	MultiEntry bool    `json:"multiEntry"`
}

// Record is one stored value. Key is nil when the key is absent, which is
// the case for legacy records and records of in-line key stores.
type Record struct {
	Key   json.RawMessage `json:"key,omitempty"`
	Value json.RawMessage `json:"value"`
}

// HasKey reports whether the record carries an explicit key.
func (r Record) HasKey() bool {
	k := bytes.TrimSpace(r.Key)
	return len(k) > 0 && !bytes.Equal(k, []byte("null"))
}

// KeyPath is an IndexedDB key path: none, a single path, or a compound
// path. The zero value is none.
type KeyPath struct {
	paths    []string
	compound bool
}

// SinglePath returns a key path of one (possibly dotted) path. The empty
// string is a valid path that selects the value itself.
func SinglePath(p string) KeyPath {
	return KeyPath{paths: []string{p}}
}

// CompoundPath returns an array key path.
func CompoundPath(paths ...string) KeyPath {
	return KeyPath{paths: append([]string{}, paths...), compound: true}
}

// IsNone reports whether there is no key path (out-of-line keys).
func (k KeyPath) IsNone() bool {
	return k.paths == nil
}

// IsCompound reports whether the key path is an array of paths.
func (k KeyPath) IsCompound() bool {
	return k.compound
}

// Paths returns the component paths.
func (k KeyPath) Paths() []string {
	return append([]string(nil), k.paths...)
}

func (k KeyPath) String() string {
	switch {
	case k.IsNone():
		return "<none>"
	case k.compound:
		return "[" + strings.Join(k.paths, ",") + "]"
	default:
		return k.paths[0]
	}
}

// MarshalJSON encodes none as null, a single path as a string and a
// compound path as an array.
func (k KeyPath) MarshalJSON() ([]byte, error) {
	switch {
	case k.IsNone():
		return []byte("null"), nil
	case k.compound:
		return json.Marshal(k.paths)
	default:
		return json.Marshal(k.paths[0])
	}
}

// UnmarshalJSON accepts null, a string or an array of strings.
func (k *KeyPath) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = KeyPath{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*k = SinglePath(single)
		return nil
	}

	var compound []string
	if err := json.Unmarshal(data, &compound); err != nil {
		return errors.Wrap(ErrInvalidSnapshot, "key path must be null, a string or an array of strings")
	}
	*k = CompoundPath(compound...)
	return nil
}

type wireDatabase struct {
	Version int                    `json:"version"`
	Stores  map[string]ObjectStore `json:"stores"`
}

// MarshalJSON encodes the database as {version, stores}.
func (d Database) MarshalJSON() ([]byte, error) {
	stores := d.Stores
	if stores == nil {
		stores = map[string]ObjectStore{}
	}
	return json.Marshal(wireDatabase{Version: d.Version, Stores: stores})
}

// UnmarshalJSON decodes {version, stores}.
func (d *Database) UnmarshalJSON(data []byte) error {
	var w wireDatabase
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Stores == nil {
		w.Stores = map[string]ObjectStore{}
	}
	d.Version = w.Version
	d.Stores = w.Stores
	return nil
}

type wireStore struct {
	KeyPath       KeyPath  `json:"keyPath"`
	AutoIncrement bool     `json:"autoIncrement"`
	Indexes       []Index  `json:"indexes"`
	Data          []Record `json:"data"`
}

// MarshalJSON always writes the keyed form.
func (s ObjectStore) MarshalJSON() ([]byte, error) {
	w := wireStore{
		KeyPath:       s.KeyPath,
		AutoIncrement: s.AutoIncrement,
		Indexes:       s.Indexes,
		Data:          s.Records,
	}
	if w.Indexes == nil {
		w.Indexes = []Index{}
	}
	if w.Data == nil {
		w.Data = []Record{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the keyed form or the legacy plain value array.
func (s *ObjectStore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []json.RawMessage
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		records := make([]Record, len(values))
		for i, v := range values {
			records[i] = Record{Value: v}
		}
		*s = ObjectStore{AutoIncrement: true, Records: records, Legacy: true}
		return nil
	}

	var w wireStore
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = ObjectStore{
		KeyPath:       w.KeyPath,
		AutoIncrement: w.AutoIncrement,
		Indexes:       w.Indexes,
		Records:       w.Data,
	}
	return nil
}
