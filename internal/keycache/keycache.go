// Package keycache implements the dual-track SM4/SM2-wrapped key cache
// (§4.5): a FIFO-ordered map per track, bounded by capacity and drained
// back to a buffer-ratio target under insertion pressure, with exactly-once
// lookup-or-create per cache key.
package keycache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
	"securelog-ecc/internal/secerr"
)

// KeyInfo is the cache value: an SM4 key, its SM2 wrapping under the
// configured public key, and the time it was created. Both key fields are
// set together and never mutated afterward, so a concurrent reader can
// never witness a torn pair (§3).
type KeyInfo struct {
	SM4Key        []byte
	SM2WrappedKey []byte
	CreatedAtMs   int64
}

type entry struct {
	key  string
	info *KeyInfo
	elem *list.Element
}

// Cache is a single FIFO-ordered, buffer-ratio-bounded key cache track.
type Cache struct {
	mu sync.Mutex

	capacity    int
	bufferRatio float64
	evicting    atomic.Bool
	pub         *crypto.SM2KeyPair
	entries     map[string]*entry
	queue       *list.List
	group       singleflight.Group
	log         *logger.Logger
	met         *metrics.Metrics
	trackName   string
}

// New returns a Cache bounded to capacity entries, wrapping new keys under
// pub's public half. bufferRatio is clamped to [0, 1].
func New(trackName string, capacity int, bufferRatio float64, pub *crypto.SM2KeyPair, log *logger.Logger, met *metrics.Metrics) (*Cache, error) {
	if capacity <= 0 {
		return nil, &secerr.InvariantError{Reason: fmt.Sprintf("%s cache capacity must be > 0, got %d", trackName, capacity)}
	}
	if bufferRatio < 0 {
		bufferRatio = 0
	}
	if bufferRatio > 1 {
		bufferRatio = 1
	}
	return &Cache{
		capacity:    capacity,
		bufferRatio: bufferRatio,
		pub:         pub,
		entries:     make(map[string]*entry, capacity),
		queue:       list.New(),
		log:         log,
		met:         met,
		trackName:   trackName,
	}, nil
}

// GetOrCreate returns the KeyInfo for cacheKey, creating one via a fresh
// SM4 key + SM2 wrap on miss. Concurrent callers racing on the same
// cacheKey observe exactly one created KeyInfo (§4.5, §5).
func (c *Cache) GetOrCreate(cacheKey string) (*KeyInfo, error) {
	c.mu.Lock()
	if e, ok := c.entries[cacheKey]; ok {
		c.mu.Unlock()
		c.recordHit()
		return e.info, nil
	}
	c.mu.Unlock()
	c.recordMiss()

	v, err, shared := c.group.Do(cacheKey, func() (interface{}, error) {
		return c.create(cacheKey)
	})
	if err != nil {
		return nil, err
	}
	if shared && c.met != nil {
		c.met.SingleFlightShared.Add(1)
	}
	return v.(*KeyInfo), nil
}

func (c *Cache) create(cacheKey string) (*KeyInfo, error) {
	// Another goroutine may have completed an identical create() between
	// our miss check and acquiring the singleflight slot; re-check.
	c.mu.Lock()
	if e, ok := c.entries[cacheKey]; ok {
		c.mu.Unlock()
		return e.info, nil
	}
	c.mu.Unlock()

	sm4Key, err := crypto.GenerateSM4Key()
	if err != nil {
		return nil, &secerr.CryptoError{Op: "generate sm4 key", Err: err}
	}
	wrapped, err := crypto.SM2EncryptKey(c.pub.Public, sm4Key)
	if err != nil {
		return nil, &secerr.CryptoError{Op: "sm2 wrap sm4 key", Err: err}
	}
	info := &KeyInfo{SM4Key: sm4Key, SM2WrappedKey: wrapped, CreatedAtMs: time.Now().UnixMilli()}

	c.mu.Lock()
	if e, ok := c.entries[cacheKey]; ok {
		c.mu.Unlock()
		return e.info, nil
	}
	elem := c.queue.PushBack(cacheKey)
	c.entries[cacheKey] = &entry{key: cacheKey, info: info, elem: elem}
	size := len(c.entries)
	c.mu.Unlock()

	if size >= c.capacity {
		c.maybeEvict()
	}
	return info, nil
}

// maybeEvict drains the FIFO head down to the buffer-ratio target. Only one
// goroutine performs eviction at a time; others skip it and retry on their
// next insert (§4.5, §5's "best-effort single-writer" discipline).
func (c *Cache) maybeEvict() {
	if !c.evicting.CompareAndSwap(false, true) {
		return
	}
	defer c.evicting.Store(false)

	target := int(float64(c.capacity) * (1 - c.bufferRatio))
	if target < 0 {
		target = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for len(c.entries) > target {
		front := c.queue.Front()
		if front == nil {
			break
		}
		c.queue.Remove(front)
		key, _ := front.Value.(string)
		delete(c.entries, key)
		evicted++
	}
	if evicted > 0 && c.log != nil {
		c.log.Debugf("evict", "%s track evicted %d entries, size now %d (target %d)", c.trackName, evicted, len(c.entries), target)
	}
}

// Size returns the current number of resident entries, for tests and
// introspection.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) recordHit() {
	if c.met == nil {
		return
	}
	switch c.trackName {
	case "session":
		c.met.SessionCacheHits.Add(1)
	case "system":
		c.met.SystemCacheHits.Add(1)
	}
}

func (c *Cache) recordMiss() {
	if c.met == nil {
		return
	}
	switch c.trackName {
	case "session":
		c.met.SessionCacheMisses.Add(1)
	case "system":
		c.met.SystemCacheMisses.Add(1)
	}
}
