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

// Package thumbnail memoizes expensive thumbnail generation keyed by file
// identity (canonical path, mtime), with strict LRU eviction and a
// single-flight guarantee under concurrent requests for the same key.
package thumbnail

import "fmt"

type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

func (t *Thumbnail) Size() int64 {
	if t == nil {
		return 0
	}
	return int64(len(t.Data))
}

// GenerationError wraps a failed thumbnail generation. Failures are never
// cached; the next request for the same key generates again.
type GenerationError struct {
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("thumbnail: generate failed: path=%q err=%q", e.Path, e.Err.Error())
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
