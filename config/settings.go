package config

import (
	"maps"
	"slices"
	"sync"
)

// Settings is the key/value configuration object handed between a host
// framework and this store. Only string entries are supported.
type Settings interface {
	Get(key string) string
	Set(key, value string)
}

// MapSettings is a goroutine-safe in-memory [Settings].
type MapSettings struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ Settings = (*MapSettings)(nil)

// NewMapSettings returns settings seeded with a copy of entries.
func NewMapSettings(entries map[string]string) *MapSettings {
	s := &MapSettings{entries: make(map[string]string, len(entries))}
	maps.Copy(s.entries, entries)
	return s
}

// Get returns the value for key or "" when unset.
func (s *MapSettings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

func (s *MapSettings) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
	s.entries[key] = value
}

// Keys returns the set keys in lexical order.
func (s *MapSettings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.entries))
}
