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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backends:
  imx.to:
    concurrency: 4
    auto_gallery: true
retry:
  max_attempts: 5
  backoff_base: 1s
  backoff_cap: 10s
cache:
  mode: persisted
  path: /var/tmp/thumbs.db
  spill_dir: /var/tmp/thumbs
reclaim_threshold: 50
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.BackendConcurrency("imx.to") != 4 {
		t.Fatalf("concurrency %d want 4", s.BackendConcurrency("imx.to"))
	}
	if !s.Backends["imx.to"].AutoGallery {
		t.Fatal("auto_gallery not set")
	}
	if s.Retry.MaxAttempts != 5 {
		t.Fatalf("max_attempts %d want 5", s.Retry.MaxAttempts)
	}
	if s.Retry.BackoffBase.Value() != time.Second {
		t.Fatalf("backoff_base %s want 1s", s.Retry.BackoffBase.Value())
	}
	// Untouched sections keep their defaults.
	if s.Events.BufferSize != 100 {
		t.Fatalf("buffer_size %d want default 100", s.Events.BufferSize)
	}
	if s.Retry.AttemptTimeout.Value() != 2*time.Minute {
		t.Fatalf("attempt_timeout %s want default 2m", s.Retry.AttemptTimeout.Value())
	}
	if s.ReclaimThreshold != 50 {
		t.Fatalf("reclaim_threshold %d want 50", s.ReclaimThreshold)
	}
}

func TestBackendConcurrencyDefault(t *testing.T) {
	s := Default()
	if s.BackendConcurrency("anything") != 2 {
		t.Fatalf("default concurrency %d want 2", s.BackendConcurrency("anything"))
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	bad := map[string]string{
		"bad_backoff":       "retry:\n  backoff_base: 1m\n",
		"bad_attempts":      "retry:\n  max_attempts: 0\n",
		"bad_cache_mode":    "cache:\n  mode: flash\n",
		"persisted_no_path": "cache:\n  mode: persisted\n",
		"bad_duration":      "retry:\n  attempt_timeout: soon\n",
	}
	for name, content := range bad {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestHolderSwapIsolation(t *testing.T) {
	first := Default()
	holder := NewHolder(first)
	if holder.Current() != first {
		t.Fatal("holder does not return the seeded snapshot")
	}

	captured := holder.Current()
	second := Default()
	second.Retry.MaxAttempts = 9
	holder.Replace(second)

	// A snapshot captured before the swap is unaffected.
	if captured.Retry.MaxAttempts != 3 {
		t.Fatalf("captured snapshot mutated: %d", captured.Retry.MaxAttempts)
	}
	if holder.Current().Retry.MaxAttempts != 9 {
		t.Fatal("swap not visible to new readers")
	}
}

func TestHolderReload(t *testing.T) {
	holder := NewHolder(Default())
	path := writeConfig(t, "retry:\n  max_attempts: 7\n")
	if err := holder.Reload(path); err != nil {
		t.Fatal(err)
	}
	if holder.Current().Retry.MaxAttempts != 7 {
		t.Fatalf("reload not applied: %d", holder.Current().Retry.MaxAttempts)
	}
	// A failed reload keeps the previous snapshot.
	if err := holder.Reload(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected reload error")
	}
	if holder.Current().Retry.MaxAttempts != 7 {
		t.Fatal("failed reload clobbered the snapshot")
	}
}
