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

package service

import (
	"testing"

	"github.com/go-test/deep"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, adapter := range []Adapter{
		NewImxAdapter(nil),
		NewPixhostAdapter(nil),
		NewTurboAdapter(nil),
	} {
		if err := r.Register(adapter); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Register(NewImxAdapter(nil)); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if _, ok := r.Lookup("pixhost.to"); !ok {
		t.Fatal("pixhost.to not found")
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Fatal("unexpected adapter for unknown name")
	}
	if diff := deep.Equal(r.Names(), []string{"imx.to", "pixhost.to", "turboimagehost"}); diff != nil {
		t.Fatal(diff)
	}
}

func TestSanitizeGalleryTitle(t *testing.T) {
	cases := map[string]string{
		"Beach Shoot":        "Beach Shoot",
		"[raw] Beach Shoot":  "raw Beach Shoot",
		"  spaced  ":         "spaced",
		"[Set 01] [preview]": "Set 01 preview",
	}
	for in, want := range cases {
		if got := sanitizeGalleryTitle(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}
