// Package aggregate builds grouped statistics over record collections.
//
// Every grouping keeps keys in first-seen input order so that ranked output is
// deterministic: sorts are stable and ties fall back to that order. Inputs are
// never mutated.
package aggregate

import "sort"

// Groups holds values grouped by key, keys in first-seen order.
type Groups[K comparable, T any] struct {
	keys  []K
	items map[K][]T
}

// GroupBy groups items by keyFn.
func GroupBy[T any, K comparable](items []T, keyFn func(T) K) *Groups[K, T] {
	g := &Groups[K, T]{items: make(map[K][]T)}
	for _, it := range items {
		k := keyFn(it)
		if _, seen := g.items[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.items[k] = append(g.items[k], it)
	}
	return g
}

// Keys returns the group keys in first-seen order.
func (g *Groups[K, T]) Keys() []K {
	return append([]K(nil), g.keys...)
}

// Get returns the members of group k.
func (g *Groups[K, T]) Get(k K) []T {
	return g.items[k]
}

// Len returns the number of groups.
func (g *Groups[K, T]) Len() int {
	return len(g.keys)
}

// Counter is an insertion-ordered string counter.
type Counter struct {
	keys   []string
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Inc adds one to key.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Add adds n to key.
func (c *Counter) Add(key string, n int) {
	if _, seen := c.counts[key]; !seen {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

// Get returns the count for key.
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Keys returns keys in first-seen order.
func (c *Counter) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.keys)
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// KeyCount is one ranked counter entry.
type KeyCount struct {
	Key   string
	Count int
}

// TopByCount ranks entries by descending count; ties keep first-seen order.
// n <= 0 returns every entry.
func TopByCount(c *Counter, n int) []KeyCount {
	out := make([]KeyCount, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, KeyCount{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DelayRate returns late/active, or 0 when there is nothing active.
func DelayRate(late, active int) float64 {
	if active <= 0 {
		return 0
	}
	return float64(late) / float64(active)
}

// runningMean folds v into a mean over n prior values.
func runningMean(avg float64, n int, v float64) float64 {
	return (avg*float64(n) + v) / float64(n+1)
}
