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
	"sync"

	"github.com/retailnext/imghostuploader/history"
)

// Handle tracks one submitted batch. Events() drains until the batch
// settles and the channel closes; Cancel() stops admitting work,
// letting in-flight uploads settle; Wait() blocks for the final records.
type Handle struct {
	events <-chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	records []history.Record
}

func newHandle(events <-chan Event, cancel context.CancelFunc) *Handle {
	return &Handle{
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (h *Handle) Events() <-chan Event {
	return h.events
}

func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until every task in the batch has settled and returns one
// record per submitted path, including rejected and canceled entries.
func (h *Handle) Wait() []history.Record {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]history.Record, len(h.records))
	copy(out, h.records)
	return out
}

func (h *Handle) appendRecord(r history.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
}

func (h *Handle) settle() {
	close(h.done)
}
