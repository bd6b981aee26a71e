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

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type Kind int

const (
	Transient Kind = iota
	Permanent
	Auth
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Auth:
		return "auth"
	case RateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is an upload failure reported by an adapter, tagged with whether a
// retry can be expected to help.
type Error struct {
	Kind   Kind
	Status int // HTTP status when applicable, else 0
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("service: %s: status=%d err=%q", e.Kind, e.Status, errString(e.Err))
	}
	return fmt.Sprintf("service: %s: err=%q", e.Kind, errString(e.Err))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Retryable() bool {
	return e.Kind == Transient || e.Kind == RateLimited
}

// Retryable reports whether the dispatcher should retry after err. Timeouts
// and network-level failures count as transient even when an adapter did not
// wrap them.
func Retryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func IsRateLimited(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == RateLimited
}

// KindOf returns the classification of err as the dispatcher sees it.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if Retryable(err) {
		return Transient
	}
	return Permanent
}

func fromStatus(status int, err error) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Kind: Auth, Status: status, Err: err}
	case status == 429:
		return &Error{Kind: RateLimited, Status: status, Err: err}
	case status >= 500:
		return &Error{Kind: Transient, Status: status, Err: err}
	default:
		return &Error{Kind: Permanent, Status: status, Err: err}
	}
}

// fromTransport classifies an error from the HTTP client itself: resets,
// refused connections and timeouts are all worth retrying.
func fromTransport(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: Permanent, Err: err}
	}
	return &Error{Kind: Transient, Err: err}
}
