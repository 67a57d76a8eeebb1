// Package cache memoizes derived values that are pure functions of immutable
// loan terms, so entries never need invalidation.
package cache

// Cache is a simple string key/value cache.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Noop is a Cache that stores nothing. Used when no cache backend is
// configured; every Get is a miss.
type Noop struct{}

func (Noop) Get(string) (string, bool) { return "", false }

func (Noop) Set(string, string) error { return nil }
