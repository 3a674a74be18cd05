package memory

import (
	"context"
	"sync"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/storage"
)

// KeyValue is an ordered string store with an optional quota.
type KeyValue struct {
	mu    *sync.Mutex
	keys  []string
	vals  map[string]string
	quota int
	fail  map[string]bool
}

var _ storage.KeyValue = (*KeyValue)(nil)

// FailKeys makes Set reject the given keys with storage.ErrQuotaExceeded.
func (s *KeyValue) FailKeys(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail == nil {
		s.fail = map[string]bool{}
	}
	for _, k := range keys {
		s.fail[k] = true
	}
}

// Len returns the number of stored keys.
func (s *KeyValue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Keys returns keys in insertion order.
func (s *KeyValue) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.keys...), nil
}

func (s *KeyValue) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok, nil
}

func (s *KeyValue) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail[key] {
		return errors.Wrapf(storage.ErrQuotaExceeded, "setting %q", key)
	}

	old, exists := s.vals[key]
	if s.quota > 0 {
		used := s.usedLocked()
		if exists {
			used -= len(key) + len(old)
		}
		if used+len(key)+len(value) > s.quota {
			return errors.Wrapf(storage.ErrQuotaExceeded, "setting %q", key)
		}
	}

	if s.vals == nil {
		s.vals = map[string]string{}
	}
	if !exists {
		s.keys = append(s.keys, key)
	}
	s.vals[key] = value
	return nil
}

func (s *KeyValue) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vals[key]; !ok {
		return nil
	}
	delete(s.vals, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (s *KeyValue) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = nil
	s.vals = nil
	return nil
}

func (s *KeyValue) usedLocked() int {
	var n int
	for k, v := range s.vals {
		n += len(k) + len(v)
	}
	return n
}
