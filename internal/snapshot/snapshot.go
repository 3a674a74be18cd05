package snapshot

import "time"

// Version is the format version tag written into new snapshots.
const Version = "4.0"

// Meta describes where and when a snapshot was captured.
type Meta struct {
	// Host is the origin host the snapshot was captured from.
	Host string

	// Path is the optional origin path.
	Path string

	// ExportedAt is the capture time in UTC.
	ExportedAt time.Time

	// Version is the format version tag.
	Version string

	// Agent names the capturing program, e.g. "webstash/1.2.0".
	Agent string

	// UserAgent is the environment's user agent string, if known.
	UserAgent string

	// ID is a random identifier unique to one export.
	ID string

	// Backends lists the backends enabled at capture time.
	Backends []Backend
}

// Snapshot is the canonical representation of one origin's client-side state.
type Snapshot struct {
	Meta           Meta
	LocalStorage   map[string]string
	SessionStorage map[string]string
	Cookies        map[string]string
	IndexedDB      map[string]Database
	CacheStorage   map[string][]CacheEntry
	ServiceWorkers []ServiceWorker
}

// New returns a snapshot with every container initialised and empty.
func New(meta Meta) *Snapshot {
	return &Snapshot{
		Meta:           meta,
		LocalStorage:   map[string]string{},
		SessionStorage: map[string]string{},
		Cookies:        map[string]string{},
		IndexedDB:      map[string]Database{},
		CacheStorage:   map[string][]CacheEntry{},
		ServiceWorkers: []ServiceWorker{},
	}
}

// SimpleStore returns the key/value mapping for a simple backend
// (localStorage, sessionStorage or cookies), or nil for any other kind.
func (s *Snapshot) SimpleStore(b Backend) map[string]string {
	switch b {
	case LocalStorage:
		return s.LocalStorage
	case SessionStorage:
		return s.SessionStorage
	case Cookies:
		return s.Cookies
	default:
		return nil
	}
}

// SetSimpleStore replaces the mapping of a simple backend. Other kinds are ignored.
func (s *Snapshot) SetSimpleStore(b Backend, m map[string]string) {
	if m == nil {
		m = map[string]string{}
	}
	switch b {
	case LocalStorage:
		s.LocalStorage = m
	case SessionStorage:
		s.SessionStorage = m
	case Cookies:
		s.Cookies = m
	}
}

// Counts reports the number of items held for each backend. IndexedDB
// counts records across all stores and cache storage counts entries
// across all caches.
func (s *Snapshot) Counts() map[Backend]int {
	counts := map[Backend]int{
		LocalStorage:   len(s.LocalStorage),
		SessionStorage: len(s.SessionStorage),
		Cookies:        len(s.Cookies),
		ServiceWorkers: len(s.ServiceWorkers),
	}

	var records int
	for _, db := range s.IndexedDB {
		for _, store := range db.Stores {
			records += len(store.Records)
		}
	}
	counts[IndexedDB] = records

	var entries int
	for _, cache := range s.CacheStorage {
		entries += len(cache)
	}
	counts[CacheStorage] = entries

	return counts
}

// Total is the sum of [Snapshot.Counts].
func (s *Snapshot) Total() int {
	var n int
	for _, c := range s.Counts() {
		n += c
	}
	return n
}
