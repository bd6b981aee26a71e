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

// Package service defines the backend adapter capability the dispatcher
// depends on. The dispatcher never branches on backend type; everything a
// backend needs beyond this interface is wired at construction.
package service

import (
	"context"

	"github.com/retailnext/imghostuploader/creds"
	"github.com/retailnext/imghostuploader/paranoid"
)

type UploadRequest struct {
	File paranoid.File
	// Thumbnail is an optional preview payload; adapters that have no use
	// for it ignore it.
	Thumbnail []byte
	GalleryID string
	// Cover marks the first file of a group; some hosts size it differently.
	Cover       bool
	Credentials creds.Credentials
	// Progress, when non-nil, receives byte-level upload progress.
	Progress func(sent, total int64)
}

type UploadResult struct {
	URL       string
	ThumbURL  string
	GalleryID string
}

type Adapter interface {
	Name() string
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// GalleryCreator is implemented by adapters whose backend groups uploads
// into galleries created ahead of the first file.
type GalleryCreator interface {
	CreateGallery(ctx context.Context, title string, credentials creds.Credentials) (string, error)
}
