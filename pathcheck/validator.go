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

// Package pathcheck authorizes untrusted file paths before anything else in
// the pipeline touches them. Only filesystem metadata is read, never file
// contents.
package pathcheck

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/retailnext/imghostuploader/metrics"
	"github.com/retailnext/imghostuploader/paranoid"
)

// DefaultBlocklist covers system roots that an image upload has no business
// reading, even via symlink.
var DefaultBlocklist = []string{
	"/etc",
	"/sys",
	"/proc",
	"/dev",
	"/boot",
	"/root",
	"/run",
}

// DefaultExtensions matches the image types the hosting backends accept.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

const (
	DefaultMaxPathLen  = 4096
	DefaultMaxFileSize = 100 << 20
)

type Options struct {
	// AllowedRoots restricts accepted files to these directory trees.
	// Empty means any path outside the blocklist is acceptable.
	AllowedRoots []string
	Blocklist    []string
	Extensions   []string
	MaxPathLen   int
	MaxFileSize  int64
}

type Validator struct {
	allowedRoots []string
	blocklist    []string
	extensions   map[string]struct{}
	maxPathLen   int
	maxFileSize  int64
}

func NewValidator(opts Options) *Validator {
	v := &Validator{
		blocklist:   opts.Blocklist,
		extensions:  make(map[string]struct{}),
		maxPathLen:  opts.MaxPathLen,
		maxFileSize: opts.MaxFileSize,
	}
	if v.blocklist == nil {
		v.blocklist = DefaultBlocklist
	}
	if v.maxPathLen == 0 {
		v.maxPathLen = DefaultMaxPathLen
	}
	if v.maxFileSize == 0 {
		v.maxFileSize = DefaultMaxFileSize
	}
	exts := opts.Extensions
	if exts == nil {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		v.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, root := range opts.AllowedRoots {
		// Roots are canonicalized up front so that the escape check compares
		// resolved paths to resolved roots.
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			v.allowedRoots = append(v.allowedRoots, resolved)
		} else {
			v.allowedRoots = append(v.allowedRoots, filepath.Clean(root))
		}
	}
	return v
}

// Validate canonicalizes rawPath and authorizes it for upload. On success the
// returned File pins the canonical path, size, and mtime observed here; later
// stages re-check that fingerprint before reading.
func (v *Validator) Validate(rawPath string) (paranoid.File, error) {
	if strings.IndexByte(rawPath, 0) >= 0 {
		return paranoid.File{}, v.reject(&Error{Kind: Traversal, Path: rawPath, Err: errors.New("null byte in path")})
	}
	if len(rawPath) > v.maxPathLen {
		return paranoid.File{}, v.reject(&Error{Kind: Traversal, Path: rawPath, Err: errors.New("path too long")})
	}

	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return paranoid.File{}, v.reject(&Error{Kind: Traversal, Path: rawPath, Err: err})
	}
	cleaned := filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return paranoid.File{}, v.reject(&Error{Kind: NotFound, Path: rawPath, Err: err})
		}
		return paranoid.File{}, v.reject(&Error{Kind: Traversal, Path: rawPath, Err: err})
	}

	for _, banned := range v.blocklist {
		if isUnder(resolved, banned) {
			return paranoid.File{}, v.reject(&Error{Kind: ForbiddenSystemPath, Path: rawPath})
		}
	}

	if len(v.allowedRoots) > 0 && !v.underAllowedRoot(resolved) {
		kind := Traversal
		if resolved != cleaned {
			// The lexical path was acceptable; a symlink moved it outside.
			kind = SymlinkEscape
		}
		return paranoid.File{}, v.reject(&Error{Kind: kind, Path: rawPath})
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	if _, ok := v.extensions[ext]; !ok {
		return paranoid.File{}, v.reject(&Error{Kind: InvalidType, Path: rawPath})
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return paranoid.File{}, v.reject(&Error{Kind: NotFound, Path: rawPath, Err: err})
	}
	if !info.Mode().IsRegular() {
		return paranoid.File{}, v.reject(&Error{Kind: InvalidType, Path: rawPath})
	}
	if info.Size() > v.maxFileSize {
		return paranoid.File{}, v.reject(&Error{Kind: TooLarge, Path: rawPath})
	}

	metrics.Validator.AcceptedFiles.Inc()
	return paranoid.NewFileFromInfo(resolved, info), nil
}

func (v *Validator) reject(e *Error) error {
	metrics.Validator.Reject(string(e.Kind))
	return e
}

func (v *Validator) underAllowedRoot(resolved string) bool {
	for _, root := range v.allowedRoots {
		if isUnder(resolved, root) {
			return true
		}
	}
	return false
}

func isUnder(path, root string) bool {
	if path == root {
		return true
	}
	if root == "/" {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
