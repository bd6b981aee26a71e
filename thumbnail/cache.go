// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package thumbnail

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/retailnext/imghostuploader/metrics"
	"github.com/retailnext/imghostuploader/paranoid"
	"go.uber.org/zap"
)

type Generator func(ctx context.Context, file paranoid.File) (*Thumbnail, error)

type Limits struct {
	// MaxEntries and MaxBytes cap the cache by count and cumulative payload
	// size; zero disables that dimension. At least one must be set.
	MaxEntries int
	MaxBytes   int64
}

// Cache owns the LRU index and the single-flight table. The Store only holds
// payloads; recency order lives here (front of the list = most recent).
type Cache struct {
	store  Store
	limits Limits

	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	curBytes int64
	inflight map[string]*flight
}

type lruEntry struct {
	key  string
	size int64
}

type flight struct {
	done  chan struct{}
	thumb *Thumbnail
	err   error
}

func NewCache(store Store, limits Limits) (*Cache, error) {
	c := &Cache{
		store:    store,
		limits:   limits,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		inflight: make(map[string]*flight),
	}

	// A persisted store reports what it already holds; rebuild recency order
	// oldest to newest so the first evictions hit the stalest entries.
	index, err := store.Index()
	if err != nil {
		return nil, err
	}
	sort.Slice(index, func(i, j int) bool {
		return index[i].LastAccess < index[j].LastAccess
	})
	for _, indexEntry := range index {
		key := string(indexEntry.Key)
		element := c.order.PushFront(&lruEntry{key: key, size: indexEntry.Size})
		c.entries[key] = element
		c.curBytes += indexEntry.Size
	}

	c.mu.Lock()
	victims := c.evictOverCapacityLocked()
	c.mu.Unlock()
	c.dropPayloads(victims)
	metrics.ThumbCache.StoredBytes.Set(float64(c.curBytes))
	return c, nil
}

// GetOrCreate returns the cached thumbnail for the file's identity key, or
// invokes generate exactly once, sharing the in-flight result with every
// concurrent caller for the same key. Generation failures are never cached.
func (c *Cache) GetOrCreate(ctx context.Context, file paranoid.File, generate Generator) (*Thumbnail, error) {
	keyBytes := file.CacheKey()
	key := string(keyBytes)

	for {
		c.mu.Lock()
		if fl, ok := c.inflight[key]; ok {
			c.mu.Unlock()
			metrics.ThumbCache.SingleflightWaits.Inc()
			select {
			case <-fl.done:
				return fl.thumb, fl.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if element, ok := c.entries[key]; ok {
			c.order.MoveToFront(element)
			c.mu.Unlock()
			wrapped, getErr := c.store.Get(keyBytes)
			if getErr == nil {
				if data := file.UnwrapCacheEntry(keyBytes, wrapped); data != nil {
					if touchErr := c.store.Touch(keyBytes); touchErr != nil {
						zap.S().Warnw("thumb_store_touch_error", "path", file.Name(), "err", touchErr)
					}
					metrics.ThumbCache.Hits.Inc()
					return &Thumbnail{Data: data}, nil
				}
			}
			// Index entry without a usable payload. Drop it and generate.
			c.remove(key)
			continue
		}

		fl := &flight{done: make(chan struct{})}
		c.inflight[key] = fl
		c.mu.Unlock()

		return c.runFlight(ctx, file, keyBytes, key, fl, generate)
	}
}

// runFlight performs one generation and completes the flight on every exit
// path, including a panic out of generate. Leaving the flight registered
// would block every later caller for the same key and suppress the retry.
func (c *Cache) runFlight(ctx context.Context, file paranoid.File, keyBytes []byte, key string, fl *flight, generate Generator) (thumb *Thumbnail, err error) {
	metrics.ThumbCache.Misses.Inc()
	t0 := time.Now()
	defer func() {
		metrics.ThumbCache.GenerateSeconds.Add(time.Since(t0).Seconds())
		if r := recover(); r != nil {
			metrics.ThumbCache.GenerateErrors.Inc()
			zap.S().Errorw("thumb_generate_panic", "path", file.Name(), "panic", r)
			thumb = nil
			err = &GenerationError{Path: file.Name(), Err: fmt.Errorf("generator panic: %v", r)}
		}
		fl.thumb, fl.err = thumb, err
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
		close(fl.done)
	}()

	thumb, err = generate(ctx, file)
	if err != nil {
		metrics.ThumbCache.GenerateErrors.Inc()
		if _, ok := err.(*GenerationError); !ok && ctx.Err() == nil {
			err = &GenerationError{Path: file.Name(), Err: err}
		}
		return nil, err
	}

	wrapped := file.WrapCacheEntry(thumb.Data)
	if putErr := c.store.Put(keyBytes, wrapped); putErr != nil {
		// The thumbnail is still usable, it just won't be reused.
		zap.S().Warnw("thumb_store_put_error", "path", file.Name(), "err", putErr)
	} else {
		c.insert(key, thumb.Size())
	}
	return thumb, nil
}

func (c *Cache) insert(key string, size int64) {
	c.mu.Lock()
	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*lruEntry)
		c.curBytes += size - entry.size
		entry.size = size
		c.order.MoveToFront(element)
	} else {
		element := c.order.PushFront(&lruEntry{key: key, size: size})
		c.entries[key] = element
		c.curBytes += size
	}
	victims := c.evictOverCapacityLocked()
	current := c.curBytes
	c.mu.Unlock()

	c.dropPayloads(victims)
	metrics.ThumbCache.StoredBytes.Set(float64(current))
}

func (c *Cache) remove(key string) {
	c.mu.Lock()
	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*lruEntry)
		c.order.Remove(element)
		delete(c.entries, key)
		c.curBytes -= entry.size
	}
	current := c.curBytes
	c.mu.Unlock()

	c.dropPayloads([]string{key})
	metrics.ThumbCache.StoredBytes.Set(float64(current))
}

// evictOverCapacityLocked trims from the back of the recency list (least
// recently used first; never-touched entries fall back to insertion order)
// and returns the evicted keys. The caller drops payloads after unlocking so
// store IO never happens under the cache lock.
func (c *Cache) evictOverCapacityLocked() []string {
	var victims []string
	for c.overCapacityLocked() {
		element := c.order.Back()
		if element == nil {
			break
		}
		entry := element.Value.(*lruEntry)
		c.order.Remove(element)
		delete(c.entries, entry.key)
		c.curBytes -= entry.size
		victims = append(victims, entry.key)
		metrics.ThumbCache.Evictions.Inc()
	}
	return victims
}

func (c *Cache) overCapacityLocked() bool {
	if c.limits.MaxEntries > 0 && c.order.Len() > c.limits.MaxEntries {
		return true
	}
	if c.limits.MaxBytes > 0 && c.curBytes > c.limits.MaxBytes {
		return true
	}
	return false
}

func (c *Cache) dropPayloads(keys []string) {
	for _, key := range keys {
		if err := c.store.Evict([]byte(key)); err != nil {
			zap.S().Warnw("thumb_store_evict_error", "err", err)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

func (c *Cache) Close() error {
	return c.store.Close()
}
