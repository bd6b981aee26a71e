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
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFromStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{400, Permanent},
		{401, Auth},
		{403, Auth},
		{404, Permanent},
		{413, Permanent},
		{429, RateLimited},
		{500, Transient},
		{502, Transient},
		{503, Transient},
	}
	for _, c := range cases {
		e := fromStatus(c.status, errors.New("boom"))
		if e.Kind != c.kind {
			t.Errorf("status %d classified %s want %s", c.status, e.Kind, c.kind)
		}
		if e.Status != c.status {
			t.Errorf("status %d not carried through", c.status)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(&Error{Kind: Transient}) {
		t.Error("transient should be retryable")
	}
	if !Retryable(&Error{Kind: RateLimited}) {
		t.Error("rate limited should be retryable")
	}
	if Retryable(&Error{Kind: Permanent}) {
		t.Error("permanent should not be retryable")
	}
	if Retryable(&Error{Kind: Auth}) {
		t.Error("auth should not be retryable")
	}
	if !Retryable(context.DeadlineExceeded) {
		t.Error("bare deadline errors should be retryable")
	}
	if Retryable(errors.New("mystery")) {
		t.Error("unclassified errors should not be retryable")
	}
	// Wrapped classified errors keep their classification.
	wrapped := fmt.Errorf("upload a.jpg: %w", &Error{Kind: RateLimited, Status: 429})
	if !Retryable(wrapped) || !IsRateLimited(wrapped) {
		t.Error("wrapping should preserve classification")
	}
}

func TestFromTransport(t *testing.T) {
	if e := fromTransport(errors.New("connection reset")); e.Kind != Transient {
		t.Errorf("transport errors classify %s want transient", e.Kind)
	}
	if e := fromTransport(context.Canceled); e.Kind != Permanent {
		t.Errorf("canceled classifies %s want permanent", e.Kind)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(&Error{Kind: Auth}); got != Auth {
		t.Errorf("got %s want auth", got)
	}
	if got := KindOf(context.DeadlineExceeded); got != Transient {
		t.Errorf("got %s want transient", got)
	}
	if got := KindOf(errors.New("mystery")); got != Permanent {
		t.Errorf("got %s want permanent", got)
	}
}
