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
	"context"

	"github.com/retailnext/imghostuploader/metrics"
	"golang.org/x/sync/semaphore"
)

// gate bounds in-flight uploads for one backend. A permit is held from
// admission until the task settles, including across retry backoff, so the
// configured ceiling counts waiting retries against the backend.
type gate struct {
	name string
	sem  *semaphore.Weighted
}

func newGate(name string, limit int64) *gate {
	if limit < 1 {
		limit = 1
	}
	return &gate{
		name: name,
		sem:  semaphore.NewWeighted(limit),
	}
}

func (g *gate) acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.Dispatch.InFlight(g.name).Inc()
	return nil
}

func (g *gate) release() {
	metrics.Dispatch.InFlight(g.name).Dec()
	g.sem.Release(1)
}
