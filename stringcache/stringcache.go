// Package stringcache adapts the admission-counted tinylfu cache into the
// interned-string cache host-language marshaling adapters use to dedupe
// identical strings across many frames (spec.md §6/§9).
package stringcache

import "github.com/memtrace/memtrace/tinylfu"

const defaultSamples = 100000

// Cache deduplicates strings by value. It does not guarantee retention: a
// miss just means the caller allocates a fresh host-language string object,
// so cache sizing is a performance, not a correctness, knob.
type Cache struct {
	t *tinylfu.T[string, string]
}

// New returns a Cache sized to hold approximately size frequently reused
// strings.
func New(size int) *Cache {
	return &Cache{t: tinylfu.New[string, string](size, defaultSamples)}
}

// Intern returns the cached string equal to s if one is already known,
// admitting s into the cache either way so repeated lookups of the same
// value converge on sharing one backing string.
func (c *Cache) Intern(s string) string {
	if cached, ok := c.t.Get(s); ok {
		return cached
	}
	c.t.Add(s, s)
	return s
}
