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

// Package creds resolves backend credentials at task-start time. The
// dispatcher never caches or persists what a Provider returns.
package creds

import (
	"fmt"
	"os"
	"strings"
)

type Credentials map[string]string

func (c Credentials) Get(key string) string {
	return c[key]
}

type Provider interface {
	Lookup(backend string) (Credentials, error)
}

// EnvProvider reads credentials from the process environment:
// <prefix>_<BACKEND>_<FIELD>, e.g. IMGHOST_IMX_TO_API_KEY for backend
// "imx.to" field "api_key".
type EnvProvider struct {
	Prefix string
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{Prefix: "IMGHOST"}
}

func (p *EnvProvider) Lookup(backend string) (Credentials, error) {
	backendPrefix := p.Prefix + "_" + normalize(backend) + "_"
	found := make(Credentials)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, backendPrefix) {
			continue
		}
		field := strings.ToLower(strings.TrimPrefix(name, backendPrefix))
		found[field] = value
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("creds: no credentials in environment for backend %q", backend)
	}
	return found, nil
}

func normalize(backend string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, backend)
	return mapped
}

// Static is a fixed credential set, used by tests and by backends that do
// not require authentication.
type Static map[string]Credentials

func (s Static) Lookup(backend string) (Credentials, error) {
	if c, ok := s[backend]; ok {
		return c, nil
	}
	return Credentials{}, nil
}
