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

package config

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Holder publishes the current snapshot. Consumers read one pointer per task
// lifetime; Replace is safe to call concurrently with readers and does not
// disturb tasks already admitted.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

func (h *Holder) Current() *Snapshot {
	return h.p.Load()
}

func (h *Holder) Replace(s *Snapshot) {
	h.p.Store(s)
	zap.S().Infow("config_snapshot_replaced")
}

// Reload loads path and swaps the snapshot in, keeping the old one on error.
func (h *Holder) Reload(path string) error {
	s, err := Load(path)
	if err != nil {
		zap.S().Warnw("config_reload_rejected", "path", path, "err", err)
		return err
	}
	h.Replace(s)
	return nil
}
