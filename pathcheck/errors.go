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

package pathcheck

import "fmt"

type Kind string

const (
	Traversal           Kind = "traversal"
	ForbiddenSystemPath Kind = "forbidden_system_path"
	SymlinkEscape       Kind = "symlink_escape"
	InvalidType         Kind = "invalid_type"
	TooLarge            Kind = "too_large"
	NotFound            Kind = "not_found"
)

// Error is a validation rejection. It is terminal for the path: validation
// errors are never retried and the path never enters the upload pipeline.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pathcheck: %s: path=%q err=%q", e.Kind, e.Path, e.Err.Error())
	}
	return fmt.Sprintf("pathcheck: %s: path=%q", e.Kind, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// KindOf returns the rejection kind, or "" if err is not a validation error.
func KindOf(err error) Kind {
	if ve, ok := err.(*Error); ok {
		return ve.Kind
	}
	return ""
}
