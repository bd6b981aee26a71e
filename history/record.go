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

//go:generate go run github.com/mailru/easyjson/easyjson $GOFILE

// Package history receives one final record per settled task. Storage
// format here is JSON lines; location is the caller's choice.
package history

import "github.com/retailnext/imghostuploader/unixtime"

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeCanceled  = "canceled"
)

//easyjson:json
type Record struct {
	TaskID          string           `json:"task_id"`
	Path            string           `json:"path"`
	Service         string           `json:"service"`
	Outcome         string           `json:"outcome"`
	Attempts        int              `json:"attempts"`
	StartedAt       unixtime.Seconds `json:"started_at"`
	SettledAt       unixtime.Seconds `json:"settled_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	URL             string           `json:"url,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
}
