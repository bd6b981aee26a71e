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

package pathcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func expectKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s rejection, got nil", kind)
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %T: %s", err, err)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected kind %s got %s (%s)", kind, got, err)
	}
}

func TestValidateAccept(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "photo.JPG"), 1024)
	v := NewValidator(Options{AllowedRoots: []string{dir}})

	file, err := v.Validate(path)
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	if file.Name() != resolved {
		t.Fatalf("canonical path %q != %q", file.Name(), resolved)
	}
	if file.Len() != 1024 {
		t.Fatalf("pinned size %d != 1024", file.Len())
	}
}

func TestValidateRelativeTraversal(t *testing.T) {
	dir := t.TempDir()
	allowed := filepath.Join(dir, "inside")
	outside := writeFile(t, filepath.Join(dir, "outside.jpg"), 10)
	writeFile(t, filepath.Join(allowed, "ok.jpg"), 10)
	v := NewValidator(Options{AllowedRoots: []string{allowed}})

	sneaky := filepath.Join(allowed, "..", "outside.jpg")
	_, err := v.Validate(sneaky)
	expectKind(t, err, Traversal)

	// Direct absolute reference outside the root is the same rejection.
	_, err = v.Validate(outside)
	expectKind(t, err, Traversal)
}

func TestValidateSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	allowed := filepath.Join(dir, "allowed")
	target := writeFile(t, filepath.Join(dir, "elsewhere", "real.jpg"), 10)
	if err := os.MkdirAll(allowed, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(allowed, "link.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	v := NewValidator(Options{AllowedRoots: []string{allowed}})

	_, err := v.Validate(link)
	expectKind(t, err, SymlinkEscape)
}

func TestValidateBlocklist(t *testing.T) {
	v := NewValidator(Options{AllowedRoots: []string{"/"}})
	_, err := v.Validate("/etc/passwd")
	expectKind(t, err, ForbiddenSystemPath)
}

func TestValidateNullByte(t *testing.T) {
	v := NewValidator(Options{})
	_, err := v.Validate("photo\x00.jpg")
	expectKind(t, err, Traversal)
}

func TestValidatePathTooLong(t *testing.T) {
	v := NewValidator(Options{MaxPathLen: 32})
	_, err := v.Validate("/" + strings.Repeat("a", 64) + ".jpg")
	expectKind(t, err, Traversal)
}

func TestValidateExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "notes.txt"), 10)
	v := NewValidator(Options{AllowedRoots: []string{dir}})
	_, err := v.Validate(path)
	expectKind(t, err, InvalidType)
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "folder.jpg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	v := NewValidator(Options{AllowedRoots: []string{dir}})
	_, err := v.Validate(sub)
	expectKind(t, err, InvalidType)
}

func TestValidateNotFound(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator(Options{AllowedRoots: []string{dir}})
	_, err := v.Validate(filepath.Join(dir, "missing.jpg"))
	expectKind(t, err, NotFound)
}

func TestValidateTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "huge.jpg"), 2048)
	v := NewValidator(Options{AllowedRoots: []string{dir}, MaxFileSize: 1024})
	_, err := v.Validate(path)
	expectKind(t, err, TooLarge)
}
