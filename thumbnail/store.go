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
	"errors"
	"sync"

	"github.com/retailnext/imghostuploader/unixtime"
)

var ErrStoreMiss = errors.New("thumbnail: store miss")

// IndexEntry describes one stored payload, reported by Index at startup so
// the cache can rebuild its recency order.
type IndexEntry struct {
	Key        []byte
	Size       int64
	LastAccess unixtime.Seconds
}

// Store is the payload backend behind the cache. The cache owns all LRU
// bookkeeping; a Store only has to hold bytes and report what it holds.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, payload []byte) error
	// Touch records an access so a persisted store survives restarts with
	// its recency order roughly intact.
	Touch(key []byte) error
	Evict(key []byte) error
	Index() ([]IndexEntry, error)
	Close() error
}

// MemoryStore is the default store: process-lifetime only.
type MemoryStore struct {
	mu       sync.Mutex
	payloads map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payloads: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.payloads[string(key)]
	if !ok {
		return nil, ErrStoreMiss
	}
	return payload, nil
}

func (s *MemoryStore) Put(key []byte, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[string(key)] = payload
	return nil
}

func (s *MemoryStore) Touch(key []byte) error {
	return nil
}

func (s *MemoryStore) Evict(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payloads, string(key))
	return nil
}

func (s *MemoryStore) Index() ([]IndexEntry, error) {
	return nil, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
