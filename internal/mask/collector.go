// Package mask implements the shape-specific maskers (§4.2) and the
// dispatch engine (§4.3) that picks one per message.
package mask

import (
	"strconv"
	"strings"
)

// Collector accumulates the sensitive-value record for one log message: an
// ordered mapping from a normalized path key to the original string (§3).
// First-seen wins a base name; repeats get a numeric suffix.
type Collector struct {
	order []string
	vals  map[string]string
	seen  map[string]int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{vals: make(map[string]string), seen: make(map[string]int)}
}

// Put records path -> original, normalizing path to lowercase with
// surrounding whitespace stripped. If the normalized path already exists,
// the new entry is stored under path+"1", path+"2", ... (§3).
func (c *Collector) Put(path, original string) {
	key := strings.ToLower(strings.TrimSpace(path))
	if n, exists := c.seen[key]; exists {
		n++
		suffixed := key + strconv.Itoa(n)
		for {
			if _, taken := c.vals[suffixed]; !taken {
				break
			}
			n++
			suffixed = key + strconv.Itoa(n)
		}
		c.seen[key] = n
		key = suffixed
	} else {
		c.seen[key] = 0
	}
	c.vals[key] = original
	c.order = append(c.order, key)
}

// Len reports how many values have been collected.
func (c *Collector) Len() int { return len(c.order) }

// Empty reports whether nothing has been collected.
func (c *Collector) Empty() bool { return len(c.order) == 0 }

// Pairs returns the collected (path, original) pairs in insertion order.
func (c *Collector) Pairs() []Pair {
	pairs := make([]Pair, 0, len(c.order))
	for _, k := range c.order {
		pairs = append(pairs, Pair{Path: k, Value: c.vals[k]})
	}
	return pairs
}

// Pair is a single collected (path, original value) entry.
type Pair struct {
	Path  string
	Value string
}
