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
	"time"

	"github.com/google/uuid"
	"github.com/retailnext/imghostuploader/metrics"
	"go.uber.org/zap"
)

type EventType int

const (
	EventStateChange EventType = iota
	EventProgress
)

// Event is a point-in-time snapshot; fields are copies so consumers never
// race with the task's owning goroutine.
type Event struct {
	Type    EventType
	TaskID  uuid.UUID
	Path    string
	Service string
	State   State
	Attempt int
	Err     error

	// Progress events only.
	BytesSent  int64
	BytesTotal int64
}

// publisher fans events out over a bounded channel. A full buffer blocks the
// producer for at most blockTimeout before the event is dropped and counted,
// so a stalled consumer cannot wedge the upload pipeline.
type publisher struct {
	ch           chan Event
	blockTimeout time.Duration
}

func newPublisher(buffer int, blockTimeout time.Duration) *publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &publisher{
		ch:           make(chan Event, buffer),
		blockTimeout: blockTimeout,
	}
}

func (p *publisher) publish(ev Event) {
	select {
	case p.ch <- ev:
		return
	default:
	}
	t := time.NewTimer(p.blockTimeout)
	defer t.Stop()
	select {
	case p.ch <- ev:
	case <-t.C:
		metrics.Dispatch.DroppedEvents.Inc()
		zap.S().Debugw("event_dropped",
			"task_id", ev.TaskID,
			"path", ev.Path,
			"state", ev.State.String(),
		)
	}
}

func (p *publisher) close() {
	close(p.ch)
}
