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
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/retailnext/imghostuploader/cache"
	"github.com/retailnext/imghostuploader/unixtime"
	"github.com/retailnext/writefile"
	"go.uber.org/zap"
)

const boltIndexValueLen = 16 // payload size + last access

// BoltStore persists thumbnails across runs: the serialized index lives in a
// bbolt bucket and payloads are spilled to individual files so the database
// stays small.
type BoltStore struct {
	index  *cache.Cache
	target writefile.Config
}

func NewBoltStore(storage *cache.Storage, name, spillDir string) *BoltStore {
	return &BoltStore{
		index: storage.Cache(name),
		target: writefile.Config{
			Directory:     spillDir,
			DirectoryMode: 0755,
			FileMode:      0644,
		},
	}
}

func (s *BoltStore) spillName(key []byte) string {
	return hex.EncodeToString(key) + ".jpg"
}

func (s *BoltStore) Get(key []byte) ([]byte, error) {
	var size int64
	getErr := s.index.Get(key, func(value []byte) error {
		if len(value) != boltIndexValueLen {
			return cache.DoNotPromote
		}
		size = int64(binary.BigEndian.Uint64(value[:8]))
		return nil
	})
	if getErr != nil {
		if errors.Is(getErr, cache.NotFound) || errors.Is(getErr, cache.DoNotPromote) {
			return nil, ErrStoreMiss
		}
		return nil, getErr
	}

	payload, readErr := os.ReadFile(filepath.Join(s.target.Directory, s.spillName(key)))
	if readErr != nil {
		// Index entry without its spill file: reap the orphan.
		zap.S().Warnw("thumb_spill_missing", "err", readErr)
		_ = s.index.Delete(key)
		return nil, ErrStoreMiss
	}
	if int64(len(payload)) != size {
		zap.S().Warnw("thumb_spill_size_mismatch", "expected", size, "actual", len(payload))
		_ = s.Evict(key)
		return nil, ErrStoreMiss
	}
	return payload, nil
}

func (s *BoltStore) Put(key []byte, payload []byte) error {
	writeErr := s.target.WriteFile(s.spillName(key), func(file *os.File) error {
		_, err := file.Write(payload)
		return err
	})
	if writeErr != nil {
		return writeErr
	}
	return s.index.Put(key, s.indexValue(int64(len(payload)), unixtime.Now()))
}

func (s *BoltStore) Touch(key []byte) error {
	var size int64
	getErr := s.index.Get(key, func(value []byte) error {
		if len(value) != boltIndexValueLen {
			return cache.DoNotPromote
		}
		size = int64(binary.BigEndian.Uint64(value[:8]))
		return nil
	})
	if getErr != nil {
		return nil
	}
	return s.index.Put(key, s.indexValue(size, unixtime.Now()))
}

func (s *BoltStore) Evict(key []byte) error {
	if err := s.index.Delete(key); err != nil {
		return err
	}
	removeErr := os.Remove(filepath.Join(s.target.Directory, s.spillName(key)))
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return removeErr
	}
	return nil
}

func (s *BoltStore) Index() ([]IndexEntry, error) {
	var entries []IndexEntry
	err := s.index.ForEach(func(key, value []byte) error {
		if len(value) != boltIndexValueLen {
			return nil
		}
		entry := IndexEntry{
			Key:  append([]byte(nil), key...),
			Size: int64(binary.BigEndian.Uint64(value[:8])),
		}
		if err := entry.LastAccess.UnmarshalBinary(value[8:]); err != nil {
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close is a no-op: the underlying Storage is shared and closed by main.
func (s *BoltStore) Close() error {
	return nil
}

// DropAll wipes the index and every spill file. Used by "cache clear".
func (s *BoltStore) DropAll() error {
	entries, err := s.Index()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		removeErr := os.Remove(filepath.Join(s.target.Directory, s.spillName(entry.Key)))
		if removeErr != nil && !os.IsNotExist(removeErr) {
			return removeErr
		}
	}
	return s.index.DropAll()
}

func (s *BoltStore) indexValue(size int64, lastAccess unixtime.Seconds) []byte {
	value := make([]byte, boltIndexValueLen)
	binary.BigEndian.PutUint64(value[:8], uint64(size))
	accessBytes, err := lastAccess.MarshalBinary()
	if err != nil {
		panic(err)
	}
	copy(value[8:], accessBytes)
	return value
}
