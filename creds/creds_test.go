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

package creds

import (
	"testing"

	"github.com/go-test/deep"
)

func TestEnvProviderLookup(t *testing.T) {
	t.Setenv("IMGHOST_IMX_TO_API_KEY", "secret")
	t.Setenv("IMGHOST_IMX_TO_USERNAME", "alice")
	t.Setenv("IMGHOST_PIXHOST_TO_API_KEY", "other")

	p := NewEnvProvider()
	got, err := p.Lookup("imx.to")
	if err != nil {
		t.Fatal(err)
	}
	expect := Credentials{
		"api_key":  "secret",
		"username": "alice",
	}
	if diff := deep.Equal(got, expect); diff != nil {
		t.Fatal(diff)
	}

	if _, err := p.Lookup("turboimagehost"); err == nil {
		t.Fatal("expected error for backend without credentials")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"imx.to":         "IMX_TO",
		"pixhost.to":     "PIXHOST_TO",
		"turboimagehost": "TURBOIMAGEHOST",
		"s3":             "S3",
	}
	for in, want := range cases {
		if got := normalize(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}
