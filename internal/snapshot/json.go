package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/thoreinstein/webstash/internal/errors"
)

// ErrInvalidSnapshot indicates text that does not describe a snapshot.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// timeLayout matches the ISO form browsers produce with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type wireMeta struct {
	Host       string    `json:"host"`
	Path       string    `json:"path,omitempty"`
	ExportedAt string    `json:"exportedAt"`
	Version    string    `json:"version"`
	Agent      string    `json:"agent,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	ID         string    `json:"id,omitempty"`
	Backends   []Backend `json:"backends,omitempty"`
}

type legacyMeta struct {
	Hostname   string `json:"hostname"`
	ExportedAt string `json:"exportedAt"`
	Version    string `json:"version"`
}

type wireSnapshot struct {
	Meta           wireMeta                `json:"meta"`
	LocalStorage   map[string]string       `json:"localStorage"`
	SessionStorage map[string]string       `json:"sessionStorage"`
	Cookies        map[string]string       `json:"cookies"`
	IndexedDB      map[string]Database     `json:"indexedDB"`
	CacheStorage   map[string][]CacheEntry `json:"cacheStorage"`
	ServiceWorkers []ServiceWorker         `json:"serviceWorkers"`
}

type decodeSnapshot struct {
	Meta           *wireMeta               `json:"meta"`
	LegacyMeta     *legacyMeta             `json:"_meta"`
	LocalStorage   map[string]string       `json:"localStorage"`
	SessionStorage map[string]string       `json:"sessionStorage"`
	Cookies        map[string]string       `json:"cookies"`
	IndexedDB      map[string]Database     `json:"indexedDB"`
	CacheStorage   map[string][]CacheEntry `json:"cacheStorage"`
	ServiceWorkers []ServiceWorker         `json:"serviceWorkers"`
}

// Marshal encodes s in its textual form. Every top-level key is present.
func Marshal(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.Wrap(ErrInvalidSnapshot, "nil snapshot")
	}

	w := wireSnapshot{
		Meta: wireMeta{
			Host:      s.Meta.Host,
			Path:      s.Meta.Path,
			Version:   s.Meta.Version,
			Agent:     s.Meta.Agent,
			UserAgent: s.Meta.UserAgent,
			ID:        s.Meta.ID,
			Backends:  s.Meta.Backends,
		},
		LocalStorage:   orEmpty(s.LocalStorage),
		SessionStorage: orEmpty(s.SessionStorage),
		Cookies:        orEmpty(s.Cookies),
		IndexedDB:      s.IndexedDB,
		CacheStorage:   s.CacheStorage,
		ServiceWorkers: s.ServiceWorkers,
	}
	if !s.Meta.ExportedAt.IsZero() {
		w.Meta.ExportedAt = s.Meta.ExportedAt.UTC().Format(timeLayout)
	}
	if w.IndexedDB == nil {
		w.IndexedDB = map[string]Database{}
	}
	if w.CacheStorage == nil {
		w.CacheStorage = map[string][]CacheEntry{}
	}
	if w.ServiceWorkers == nil {
		w.ServiceWorkers = []ServiceWorker{}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	return data, nil
}

// Unmarshal parses the textual form, accepting legacy metadata and legacy
// object store arrays. Missing containers come back empty, never nil.
func Unmarshal(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.Wrap(ErrInvalidSnapshot, "expected a JSON object")
	}

	var d decodeSnapshot
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding snapshot"), ErrInvalidSnapshot)
	}

	s := New(metaFromWire(d.Meta, d.LegacyMeta))
	if d.LocalStorage != nil {
		s.LocalStorage = d.LocalStorage
	}
	if d.SessionStorage != nil {
		s.SessionStorage = d.SessionStorage
	}
	if d.Cookies != nil {
		s.Cookies = d.Cookies
	}
	if d.IndexedDB != nil {
		s.IndexedDB = d.IndexedDB
	}
	if d.CacheStorage != nil {
		s.CacheStorage = d.CacheStorage
	}
	if d.ServiceWorkers != nil {
		s.ServiceWorkers = d.ServiceWorkers
	}
	return s, nil
}

// Valid reports whether data parses as a snapshot.
func Valid(data []byte) bool {
	_, err := Unmarshal(data)
	return err == nil
}

func metaFromWire(m *wireMeta, legacy *legacyMeta) Meta {
	switch {
	case m != nil:
		return Meta{
			Host:       m.Host,
			Path:       m.Path,
			ExportedAt: parseTime(m.ExportedAt),
			Version:    m.Version,
			Agent:      m.Agent,
			UserAgent:  m.UserAgent,
			ID:         m.ID,
			Backends:   m.Backends,
		}
	case legacy != nil:
		return Meta{
			Host:       legacy.Hostname,
			ExportedAt: parseTime(legacy.ExportedAt),
			Version:    legacy.Version,
		}
	default:
		return Meta{}
	}
}

// parseTime is lenient; an unparseable timestamp is treated as unknown.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
