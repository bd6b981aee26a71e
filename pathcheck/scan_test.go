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
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func TestNaturalLess(t *testing.T) {
	ordered := []struct {
		a, b string
	}{
		{"img1.jpg", "img2.jpg"},
		{"img2.jpg", "img10.jpg"},
		{"img9.jpg", "img10.jpg"},
		{"a10.jpg", "b1.jpg"},
		{"IMG2.jpg", "img10.jpg"},
		{"shoot1/img1.jpg", "shoot1/img2.jpg"},
	}
	for _, c := range ordered {
		if !naturalLess(c.a, c.b) {
			t.Errorf("expected %q < %q", c.a, c.b)
		}
		if naturalLess(c.b, c.a) {
			t.Errorf("expected %q not < %q", c.b, c.a)
		}
	}
}

func TestScanInputsGroupsAndOrder(t *testing.T) {
	dir := t.TempDir()
	shoot := filepath.Join(dir, "Beach Shoot")
	for _, name := range []string{"img10.jpg", "img2.jpg", "img1.jpg", "notes.txt"} {
		writeFile(t, filepath.Join(shoot, name), 1)
	}
	loose := writeFile(t, filepath.Join(dir, "loose.png"), 1)
	skipped := writeFile(t, filepath.Join(dir, "skipped.txt"), 1)

	v := NewValidator(Options{AllowedRoots: []string{dir}})
	groups := v.ScanInputs([]string{shoot, loose, skipped})

	expect := []Group{
		{
			Name: "Beach Shoot",
			Paths: []string{
				filepath.Join(shoot, "img1.jpg"),
				filepath.Join(shoot, "img2.jpg"),
				filepath.Join(shoot, "img10.jpg"),
			},
		},
		{
			Name:  "Miscellaneous",
			Paths: []string{loose},
		},
	}
	if diff := deep.Equal(groups, expect); diff != nil {
		t.Fatal(diff)
	}
}

func TestScanInputsEmptyDirSkipped(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator(Options{})
	if groups := v.ScanInputs([]string{dir}); len(groups) != 0 {
		t.Fatalf("expected no groups got %v", groups)
	}
}
