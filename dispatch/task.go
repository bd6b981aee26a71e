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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailnext/imghostuploader/paranoid"
	"github.com/retailnext/imghostuploader/service"
	"github.com/retailnext/imghostuploader/thumbnail"
)

type State int

const (
	StatePending State = iota
	StateQueued
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateQueued:
		return "queued"
	case StateInFlight:
		return "in_flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Task is one file bound for one backend. A task is owned by a single
// goroutine at any point in its life; transitions are monotonic and only
// Retrying ever leads back to Queued.
type Task struct {
	ID        uuid.UUID
	File      paranoid.File
	Service   string
	Group     string
	GalleryID string
	Cover     bool

	state     State
	attempts  int
	lastErr   error
	result    *service.UploadResult
	thumb     *thumbnail.Thumbnail
	createdAt time.Time
	startedAt time.Time
	settledAt time.Time
	canceled  bool
}

func newTask(file paranoid.File, svc, group string, cover bool) *Task {
	return &Task{
		ID:        uuid.New(),
		File:      file,
		Service:   svc,
		Group:     group,
		Cover:     cover,
		state:     StatePending,
		createdAt: time.Now(),
	}
}

func (t *Task) State() State {
	return t.state
}

func (t *Task) Attempts() int {
	return t.attempts
}

func (t *Task) succeed(result *service.UploadResult) {
	t.result = result
	t.state = StateSucceeded
	t.settledAt = time.Now()
}

func (t *Task) fail(err error) {
	t.lastErr = err
	t.state = StateFailed
	t.settledAt = time.Now()
}

func (t *Task) cancel(err error) {
	t.canceled = true
	t.fail(err)
}
