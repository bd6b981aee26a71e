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

package dispatch

import (
	"math/rand/v2"
	"time"

	"github.com/retailnext/imghostuploader/config"
)

// backoffPolicy doubles the delay each attempt, capped, then jitters the
// result so simultaneous retries against the same backend spread out.
// Rate-limited failures stretch the capped delay by rateLimitFactor.
type backoffPolicy struct {
	base            time.Duration
	cap             time.Duration
	rateLimitFactor float64
}

func newBackoffPolicy(cfg config.RetryConfig) backoffPolicy {
	return backoffPolicy{
		base:            cfg.BackoffBase.Value(),
		cap:             cfg.BackoffCap.Value(),
		rateLimitFactor: cfg.RateLimitFactor,
	}
}

func (p backoffPolicy) delay(attempt int, rateLimited bool) time.Duration {
	d := p.base
	// Shifting past 16 doublings is always over any sane cap.
	for i := 1; i < attempt && i <= 16; i++ {
		d *= 2
		if d >= p.cap {
			break
		}
	}
	if d > p.cap {
		d = p.cap
	}
	if rateLimited && p.rateLimitFactor > 1 {
		d = time.Duration(float64(d) * p.rateLimitFactor)
	}
	return jitter(d)
}

// jitter picks uniformly from [d/2, d].
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half+1)
}
