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

// Package cache is the bbolt-backed key/value store behind the persisted
// thumbnail cache. The store keeps serialized index entries; large payloads
// live in spill files owned by the callers.
package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/retailnext/imghostuploader/metrics"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	DoNotPromote = errors.New("do not promote")
	NotFound     = errors.New("not found")
)

var (
	Shared *Storage
	once   sync.Once
)

func Open(path string, mode os.FileMode) (*Storage, error) {
	db, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, err
	}
	ensureFileOwnership(path)
	return &Storage{db: db}, nil
}

// ensureFileOwnership keeps the database owned by the same uid/gid as the
// containing directory. Without this, one run as root can make the cache db
// unusable by the user the tool normally runs as.
func ensureFileOwnership(path string) {
	if os.Geteuid() != 0 {
		return
	}
	lgr := zap.S()
	dbInfo, err := os.Stat(path)
	if err != nil {
		lgr.Errorw("cache_db_stat_error", "err", err)
		return
	}
	parent := filepath.Dir(path)
	parentInfo, err := os.Stat(parent)
	if err != nil {
		lgr.Errorw("cache_db_stat_error", "err", err)
		return
	}
	dbStat, ok := dbInfo.Sys().(*syscall.Stat_t)
	if !ok {
		lgr.Warnw("cache_db_stat_unsupported")
		return
	}
	parentStat, ok := parentInfo.Sys().(*syscall.Stat_t)
	if !ok {
		lgr.Warnw("cache_db_stat_unsupported")
		return
	}
	if dbStat.Uid != parentStat.Uid || dbStat.Gid != parentStat.Gid {
		err = os.Chown(path, int(parentStat.Uid), int(parentStat.Gid))
		if err != nil {
			lgr.Errorw("cache_db_chown_error", "err", err)
		} else {
			lgr.Infow("cache_db_chown_ok", "uid", parentStat.Uid, "gid", parentStat.Gid)
		}
	}
}

func OpenShared(path string) {
	once.Do(func() {
		s, err := Open(path, 0644)
		if err != nil {
			panic(err)
		}
		Shared = s
	})
}

type Storage struct {
	db *bbolt.DB
}

func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) Cache(name string) *Cache {
	return &Cache{
		storage:  s,
		name:     []byte(name),
		counters: metrics.NewStoreCounters(name),
	}
}

type Cache struct {
	storage  *Storage
	name     []byte
	counters *metrics.StoreCounters
}

type WithValueFunc func(value []byte) error

func (c *Cache) Get(key []byte, f WithValueFunc) error {
	viewErr := c.storage.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(c.name); bucket != nil {
			if value := bucket.Get(key); value != nil {
				return f(value)
			}
		}
		return NotFound
	})
	if viewErr != nil {
		c.counters.Misses.Inc()
		return viewErr
	}
	c.counters.Hits.Inc()
	return nil
}

func (c *Cache) Put(key, value []byte) error {
	c.counters.Puts.Inc()
	lgr := zap.S()
	return c.storage.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.name)
		if bucket == nil {
			if newBucket, err := tx.CreateBucket(c.name); err != nil {
				return err
			} else {
				lgr.Infow("cache_bucket_created", "cache", string(c.name))
				bucket = newBucket
			}
		}
		return bucket.Put(key, value)
	})
}

func (c *Cache) Delete(key []byte) error {
	c.counters.Deletes.Inc()
	return c.storage.db.Update(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(c.name); bucket != nil {
			return bucket.Delete(key)
		}
		return nil
	})
}

// ForEach visits every entry in this cache's bucket. Used at startup to
// rebuild the in-memory index of a persisted cache.
func (c *Cache) ForEach(f func(key, value []byte) error) error {
	return c.storage.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(c.name); bucket != nil {
			return bucket.ForEach(f)
		}
		return nil
	})
}

// DropAll deletes the bucket and everything in it.
func (c *Cache) DropAll() error {
	return c.storage.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(c.name) == nil {
			return nil
		}
		return tx.DeleteBucket(c.name)
	})
}
