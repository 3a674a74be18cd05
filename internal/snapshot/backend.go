package snapshot

import (
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Backend identifies one kind of client-side storage.
type Backend string

// Backend kinds, in capture order.
const (
	LocalStorage   Backend = "localStorage"
	SessionStorage Backend = "sessionStorage"
	Cookies        Backend = "cookies"
	IndexedDB      Backend = "indexedDB"
	CacheStorage   Backend = "cacheStorage"
	ServiceWorkers Backend = "serviceWorkers"
)

// AllBackends returns every backend kind in capture order.
func AllBackends() []Backend {
	return []Backend{LocalStorage, SessionStorage, Cookies, IndexedDB, CacheStorage, ServiceWorkers}
}

var backendAliases = map[string]Backend{
	"local":   LocalStorage,
	"session": SessionStorage,
	"cookie":  Cookies,
	"idb":     IndexedDB,
	"cache":   CacheStorage,
	"sw":      ServiceWorkers,
}

// String returns the textual name of the backend.
func (b Backend) String() string {
	return string(b)
}

// Valid reports whether b is a known backend kind.
func (b Backend) Valid() bool {
	for _, known := range AllBackends() {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBackend resolves a backend name or short alias, case-insensitively.
func ParseBackend(name string) (Backend, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, b := range AllBackends() {
		if strings.ToLower(string(b)) == n {
			return b, nil
		}
	}
	if b, ok := backendAliases[n]; ok {
		return b, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidBackend, "%q", name)
}

// ParseBackends resolves a list of names, dropping duplicates and keeping
// the first occurrence order. An empty list selects every backend.
func ParseBackends(names []string) ([]Backend, error) {
	if len(names) == 0 {
		return AllBackends(), nil
	}

	seen := make(map[Backend]bool, len(names))
	out := make([]Backend, 0, len(names))
	for _, name := range names {
		b, err := ParseBackend(name)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}
