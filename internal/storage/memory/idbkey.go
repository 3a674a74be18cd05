package memory

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

type keyKind int

// Ordering of kinds follows IndexedDB key comparison for the JSON-expressible subset.
const (
	kindNumber keyKind = iota + 1
	kindString
	kindArray
)

// idbKey is a valid IndexedDB key.
type idbKey struct {
	kind keyKind
	num  float64
	str  string
	arr  []idbKey
}

func compareKeys(a, b idbKey) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case kindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case kindString:
		return strings.Compare(a.str, b.str)
	default:
		for i := 0; i < len(a.arr) && i < len(b.arr); i++ {
			if c := compareKeys(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(a.arr) < len(b.arr):
			return -1
		case len(a.arr) > len(b.arr):
			return 1
		}
		return 0
	}
}

// keyFromAny converts a decoded JSON value into a key.
func keyFromAny(v any) (idbKey, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return idbKey{}, false
		}
		return idbKey{kind: kindNumber, num: t}, true
	case string:
		return idbKey{kind: kindString, str: t}, true
	case []any:
		arr := make([]idbKey, 0, len(t))
		for _, e := range t {
			k, ok := keyFromAny(e)
			if !ok {
				return idbKey{}, false
			}
			arr = append(arr, k)
		}
		return idbKey{kind: kindArray, arr: arr}, true
	default:
		return idbKey{}, false
	}
}

func parseKey(raw json.RawMessage) (idbKey, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return idbKey{}, err
	}
	k, ok := keyFromAny(v)
	if !ok {
		return idbKey{}, errors.Wrapf(storage.ErrData, "%s is not a valid key", bytes.TrimSpace(raw))
	}
	return k, nil
}

func (k idbKey) toAny() any {
	switch k.kind {
	case kindNumber:
		return k.num
	case kindString:
		return k.str
	default:
		out := make([]any, len(k.arr))
		for i, e := range k.arr {
			out[i] = e.toAny()
		}
		return out
	}
}

func (k idbKey) marshal() json.RawMessage {
	// keys are numbers, strings and arrays of those, which always encode
	data, _ := json.Marshal(k.toAny())
	return data
}

func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(storage.ErrData, "value is not JSON")
	}
	return v, nil
}

// valueAt resolves a dotted path inside a decoded value. The empty path
// selects the value itself.
func valueAt(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// extractKey evaluates a key path against a value. found is false when a
// path component is missing; an error means the value at the path is not
// a valid key.
func extractKey(v any, kp snapshot.KeyPath) (idbKey, bool, error) {
	paths := kp.Paths()
	if !kp.IsCompound() {
		raw, ok := valueAt(v, paths[0])
		if !ok {
			return idbKey{}, false, nil
		}
		k, ok := keyFromAny(raw)
		if !ok {
			return idbKey{}, true, errors.Wrapf(storage.ErrData, "value at %q is not a valid key", paths[0])
		}
		return k, true, nil
	}

	arr := make([]idbKey, 0, len(paths))
	for _, p := range paths {
		raw, ok := valueAt(v, p)
		if !ok {
			return idbKey{}, false, nil
		}
		part, ok := keyFromAny(raw)
		if !ok {
			return idbKey{}, true, errors.Wrapf(storage.ErrData, "value at %q is not a valid key", p)
		}
		arr = append(arr, part)
	}
	return idbKey{kind: kindArray, arr: arr}, true, nil
}

// injectKey stores a generated key at a single dotted path, creating
// intermediate objects.
func injectKey(v any, path string, key float64) (any, bool) {
	obj, ok := v.(map[string]any)
	if !ok || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	cur := obj
	for _, part := range parts[:len(parts)-1] {
		next, exists := cur[part]
		if !exists {
			child := map[string]any{}
			cur[part] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = child
	}
	cur[parts[len(parts)-1]] = key
	return obj, true
}

// indexKeys returns the index entries a value contributes.
func indexKeys(v any, idx snapshot.Index) []idbKey {
	if idx.KeyPath.IsNone() {
		return nil
	}
	if idx.MultiEntry && !idx.KeyPath.IsCompound() {
		raw, ok := valueAt(v, idx.KeyPath.Paths()[0])
		if !ok {
			return nil
		}
		if list, isList := raw.([]any); isList {
			var keys []idbKey
			for _, e := range list {
				if k, ok := keyFromAny(e); ok {
					keys = append(keys, k)
				}
			}
			return keys
		}
	}
	k, found, err := extractKey(v, idx.KeyPath)
	if !found || err != nil {
		return nil
	}
	return []idbKey{k}
}
