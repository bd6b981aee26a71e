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

package paranoid

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

const (
	cacheKeyPathHashLen = 16
	cacheKeyLen         = cacheKeyPathHashLen + 16 // path hash + mtime sec + nsec
	cacheValueHeaderLen = 8                        // size
)

// CacheKey identifies the (canonical path, mtime) pair. A change to the
// file's mtime yields a different key, so stale entries become unreachable
// rather than being returned.
func (f File) CacheKey() []byte {
	pathHash := blake2b.Sum256([]byte(f.name))
	key := make([]byte, cacheKeyLen)
	copy(key[:cacheKeyPathHashLen], pathHash[:cacheKeyPathHashLen])
	binary.BigEndian.PutUint64(key[cacheKeyPathHashLen:], uint64(f.fingerprint.mtime.Sec))
	binary.BigEndian.PutUint64(key[cacheKeyPathHashLen+8:], uint64(f.fingerprint.mtime.Nsec))
	return key
}

func (f File) cacheValueHeader() [cacheValueHeaderLen]byte {
	var header [cacheValueHeaderLen]byte
	binary.BigEndian.PutUint64(header[:], uint64(f.fingerprint.size))
	return header
}

// UnwrapCacheEntry returns nil unless the entry was written for a file with
// this key and size.
func (f File) UnwrapCacheEntry(cacheKey, cacheValue []byte) []byte {
	if !bytes.Equal(f.CacheKey(), cacheKey) {
		return nil
	}
	if len(cacheValue) < cacheValueHeaderLen {
		return nil
	}
	cacheValueHeader := f.cacheValueHeader()
	if !bytes.Equal(cacheValueHeader[:], cacheValue[0:cacheValueHeaderLen]) {
		return nil
	}
	return cacheValue[cacheValueHeaderLen:]
}

func (f File) WrapCacheEntry(data []byte) []byte {
	r := make([]byte, 0, cacheValueHeaderLen+len(data))
	cacheValueHeader := f.cacheValueHeader()
	r = append(r, cacheValueHeader[:]...)
	r = append(r, data...)
	return r
}
