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

// Package config holds the immutable configuration snapshot consumed by the
// dispatcher and the thumbnail cache. A snapshot is never mutated after load;
// hot reload swaps the Holder's pointer and only affects tasks admitted
// afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CacheModeMemory    = "memory"
	CacheModePersisted = "persisted"
)

// Duration parses "30s" style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

type BackendConfig struct {
	Concurrency int64 `yaml:"concurrency"`
	AutoGallery bool  `yaml:"auto_gallery"`
}

type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`
	AttemptTimeout  Duration `yaml:"attempt_timeout"`
	BackoffBase     Duration `yaml:"backoff_base"`
	BackoffCap      Duration `yaml:"backoff_cap"`
	RateLimitFactor float64  `yaml:"rate_limit_factor"`
}

type EventsConfig struct {
	BufferSize   int      `yaml:"buffer_size"`
	BlockTimeout Duration `yaml:"block_timeout"`
}

type CacheConfig struct {
	Mode       string `yaml:"mode"`
	MaxEntries int    `yaml:"max_entries"`
	MaxBytes   int64  `yaml:"max_bytes"`
	Path       string `yaml:"path"`
	SpillDir   string `yaml:"spill_dir"`
	ThumbEdge  int    `yaml:"thumb_edge"`
	// Required makes a failed thumbnail generation fail the upload task
	// instead of just omitting the preview.
	Required bool `yaml:"required"`
}

type ValidatorConfig struct {
	AllowedRoots []string `yaml:"allowed_roots"`
	Blocklist    []string `yaml:"blocklist"`
	Extensions   []string `yaml:"extensions"`
	MaxPathLen   int      `yaml:"max_path_len"`
	MaxFileSize  int64    `yaml:"max_file_size"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	KeyPrefix    string `yaml:"key_prefix"`
	StorageClass string `yaml:"storage_class"`
}

type Snapshot struct {
	Backends         map[string]BackendConfig `yaml:"backends"`
	Retry            RetryConfig              `yaml:"retry"`
	Events           EventsConfig             `yaml:"events"`
	Cache            CacheConfig              `yaml:"cache"`
	Validator        ValidatorConfig          `yaml:"validator"`
	S3               S3Config                 `yaml:"s3"`
	ReclaimThreshold int                      `yaml:"reclaim_threshold"`
}

func Default() *Snapshot {
	return &Snapshot{
		Backends: map[string]BackendConfig{},
		Retry: RetryConfig{
			MaxAttempts:     3,
			AttemptTimeout:  Duration(2 * time.Minute),
			BackoffBase:     Duration(2 * time.Second),
			BackoffCap:      Duration(30 * time.Second),
			RateLimitFactor: 2,
		},
		Events: EventsConfig{
			BufferSize:   100,
			BlockTimeout: Duration(time.Second),
		},
		Cache: CacheConfig{
			Mode:       CacheModeMemory,
			MaxEntries: 1024,
			MaxBytes:   64 << 20,
			ThumbEdge:  256,
		},
		ReclaimThreshold: 100,
	}
}

func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) Validate() error {
	for name, backend := range s.Backends {
		if backend.Concurrency < 0 {
			return fmt.Errorf("config: backend %q: negative concurrency", name)
		}
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be >= 1")
	}
	if s.Retry.BackoffBase.Value() <= 0 || s.Retry.BackoffCap.Value() < s.Retry.BackoffBase.Value() {
		return fmt.Errorf("config: invalid backoff bounds")
	}
	if s.Events.BufferSize < 1 {
		return fmt.Errorf("config: events.buffer_size must be >= 1")
	}
	switch s.Cache.Mode {
	case CacheModeMemory:
	case CacheModePersisted:
		if s.Cache.Path == "" || s.Cache.SpillDir == "" {
			return fmt.Errorf("config: persisted cache requires path and spill_dir")
		}
	default:
		return fmt.Errorf("config: unknown cache mode %q", s.Cache.Mode)
	}
	if s.Cache.MaxEntries < 1 && s.Cache.MaxBytes < 1 {
		return fmt.Errorf("config: cache needs an entry or byte capacity")
	}
	return nil
}

// BackendConcurrency returns the configured ceiling for a backend, defaulting
// to 2 for backends without an explicit entry.
func (s *Snapshot) BackendConcurrency(name string) int64 {
	if backend, ok := s.Backends[name]; ok && backend.Concurrency > 0 {
		return backend.Concurrency
	}
	return 2
}
