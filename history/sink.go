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

package history

import (
	"os"
	"sync"

	"github.com/mailru/easyjson/jwriter"
)

type Sink interface {
	Append(record Record) error
	Close() error
}

// FileSink appends JSON-lines records. Appends are serialized so records
// from concurrently settling tasks never interleave.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: file}, nil
}

func (s *FileSink) Append(record Record) error {
	var w jwriter.Writer
	record.MarshalEasyJSON(&w)
	w.RawByte('\n')
	if w.Error != nil {
		return w.Error
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := w.DumpTo(s.file)
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// NopSink discards records; used when no history file is configured.
type NopSink struct{}

func (NopSink) Append(Record) error {
	return nil
}

func (NopSink) Close() error {
	return nil
}
