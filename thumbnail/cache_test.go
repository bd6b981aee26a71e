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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/retailnext/imghostuploader/paranoid"
)

type countingGenerator struct {
	mu    sync.Mutex
	calls map[string]int
	hold  chan struct{}
	err   error
	data  []byte
}

func (g *countingGenerator) generate(ctx context.Context, file paranoid.File) (*Thumbnail, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[file.Name()]++
	g.mu.Unlock()

	if g.hold != nil {
		<-g.hold
	}
	if g.err != nil {
		return nil, g.err
	}
	data := g.data
	if data == nil {
		data = []byte("thumb:" + filepath.Base(file.Name()))
	}
	return &Thumbnail{Data: data, Width: 1, Height: 1}, nil
}

func (g *countingGenerator) count(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[path]
}

func newTestFile(t *testing.T, dir, name, content string) paranoid.File {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	file, err := paranoid.NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func TestGetOrCreateCachesByIdentity(t *testing.T) {
	dir := t.TempDir()
	file := newTestFile(t, dir, "a.jpg", "image a")
	gen := &countingGenerator{}
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}

	first, err := c.GetOrCreate(context.Background(), file, gen.generate)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrCreate(context.Background(), file, gen.generate)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("cached payload differs from generated payload")
	}
	if got := gen.count(file.Name()); got != 1 {
		t.Fatalf("expected 1 generation got %d", got)
	}
}

func TestSingleFlightSharesOneGeneration(t *testing.T) {
	dir := t.TempDir()
	file := newTestFile(t, dir, "a.jpg", "image a")
	gen := &countingGenerator{hold: make(chan struct{})}
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*Thumbnail, 5)
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCreate(context.Background(), file, gen.generate)
		}(i)
	}
	// Give every goroutine a chance to reach the cache before releasing
	// the generator.
	time.Sleep(20 * time.Millisecond)
	close(gen.hold)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if !bytes.Equal(results[i].Data, results[0].Data) {
			t.Fatal("concurrent callers got different payloads")
		}
	}
	if got := gen.count(file.Name()); got != 1 {
		t.Fatalf("expected exactly 1 generation got %d", got)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	fileA := newTestFile(t, dir, "a.jpg", "image a")
	fileB := newTestFile(t, dir, "b.jpg", "image b")
	fileC := newTestFile(t, dir, "c.jpg", "image c")
	gen := &countingGenerator{}
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 2})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// A, B, A again (refreshing A's recency), then C. B is the victim.
	for _, file := range []paranoid.File{fileA, fileB, fileA, fileC} {
		if _, err := c.GetOrCreate(ctx, file, gen.generate); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries got %d", c.Len())
	}
	if _, err := c.GetOrCreate(ctx, fileB, gen.generate); err != nil {
		t.Fatal(err)
	}
	if got := gen.count(fileB.Name()); got != 2 {
		t.Fatalf("expected B to be regenerated after eviction, got %d generations", got)
	}
	if got := gen.count(fileC.Name()); got != 1 {
		t.Fatalf("expected C to stay cached, got %d generations", got)
	}
}

func TestByteLimitEviction(t *testing.T) {
	dir := t.TempDir()
	gen := &countingGenerator{data: make([]byte, 100)}
	c, err := NewCache(NewMemoryStore(), Limits{MaxBytes: 250})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		file := newTestFile(t, dir, name, "image "+name)
		if _, err := c.GetOrCreate(ctx, file, gen.generate); err != nil {
			t.Fatal(err)
		}
	}
	if c.Bytes() > 250 {
		t.Fatalf("cache holds %d bytes over the 250 byte cap", c.Bytes())
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries at 100 bytes each got %d", c.Len())
	}
}

func TestMtimeChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	file := newTestFile(t, dir, "a.jpg", "image a v1")
	gen := &countingGenerator{}
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := c.GetOrCreate(ctx, file, gen.generate); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("image a v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	updated, err := paranoid.NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.GetOrCreate(ctx, updated, gen.generate); err != nil {
		t.Fatal(err)
	}
	if got := gen.count(path); got != 2 {
		t.Fatalf("expected regeneration after mtime change, got %d generations", got)
	}
}

func TestGenerationErrorsNotCached(t *testing.T) {
	dir := t.TempDir()
	file := newTestFile(t, dir, "a.jpg", "image a")
	gen := &countingGenerator{err: errors.New("decode failed")}
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.GetOrCreate(ctx, file, gen.generate)
		if err == nil {
			t.Fatal("expected generation error")
		}
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("expected GenerationError got %T", err)
		}
	}
	if got := gen.count(file.Name()); got != 2 {
		t.Fatalf("expected failures to skip the cache, got %d generations", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache got %d entries", c.Len())
	}
}

func TestGeneratorPanicReleasesFlight(t *testing.T) {
	dir := t.TempDir()
	file := newTestFile(t, dir, "a.jpg", "image a")
	c, err := NewCache(NewMemoryStore(), Limits{MaxEntries: 8})
	if err != nil {
		t.Fatal(err)
	}

	panicking := func(ctx context.Context, file paranoid.File) (*Thumbnail, error) {
		panic("decoder blew up")
	}
	_, err = c.GetOrCreate(context.Background(), file, panicking)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError got %v", err)
	}

	// The key must not stay registered in flight; the next caller retries
	// generation instead of waiting on the crashed one.
	gen := &countingGenerator{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	thumb, err := c.GetOrCreate(ctx, file, gen.generate)
	if err != nil {
		t.Fatal(err)
	}
	if thumb == nil || len(thumb.Data) == 0 {
		t.Fatal("expected generated thumbnail after recovered panic")
	}
	if got := gen.count(file.Name()); got != 1 {
		t.Fatalf("expected 1 generation got %d", got)
	}
}
