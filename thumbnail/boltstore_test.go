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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retailnext/imghostuploader/cache"
)

func openTestStorage(t *testing.T, dir string) *cache.Storage {
	t.Helper()
	storage, err := cache.Open(filepath.Join(dir, "index.db"), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	return storage
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	spill := filepath.Join(dir, "thumbs")
	file := newTestFile(t, dir, "a.jpg", "image a")
	gen := &countingGenerator{}
	ctx := context.Background()

	storage := openTestStorage(t, dir)
	c, err := NewCache(NewBoltStore(storage, "thumbnails", spill), Limits{MaxEntries: 4})
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.GetOrCreate(ctx, file, gen.generate)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Close(); err != nil {
		t.Fatal(err)
	}

	storage = openTestStorage(t, dir)
	defer func() {
		_ = storage.Close()
	}()
	c, err = NewCache(NewBoltStore(storage, "thumbnails", spill), Limits{MaxEntries: 4})
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after reopen got %d", c.Len())
	}
	second, err := c.GetOrCreate(ctx, file, gen.generate)
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Data) != string(first.Data) {
		t.Fatal("payload changed across reopen")
	}
	if got := gen.count(file.Name()); got != 1 {
		t.Fatalf("expected the reopened cache to hit, got %d generations", got)
	}
}

func TestBoltStoreReapsMissingSpillFile(t *testing.T) {
	dir := t.TempDir()
	spill := filepath.Join(dir, "thumbs")
	storage := openTestStorage(t, dir)
	defer func() {
		_ = storage.Close()
	}()
	store := NewBoltStore(storage, "thumbnails", spill)

	key := []byte("somekey0123456789somekey01234567")
	if err := store.Put(key, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(spill, store.spillName(key))); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(key); !errors.Is(err, ErrStoreMiss) {
		t.Fatalf("expected store miss got %v", err)
	}
	// The orphaned index entry is gone too.
	entries, err := store.Index()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index got %d entries", len(entries))
	}
}

func TestBoltStoreDropAll(t *testing.T) {
	dir := t.TempDir()
	spill := filepath.Join(dir, "thumbs")
	storage := openTestStorage(t, dir)
	defer func() {
		_ = storage.Close()
	}()
	store := NewBoltStore(storage, "thumbnails", spill)

	for _, key := range []string{"key-one", "key-two"} {
		if err := store.Put([]byte(key), []byte("payload")); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.DropAll(); err != nil {
		t.Fatal(err)
	}
	entries, err := store.Index()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index got %d entries", len(entries))
	}
	if _, err := store.Get([]byte("key-one")); !errors.Is(err, ErrStoreMiss) {
		t.Fatalf("expected store miss got %v", err)
	}
}
