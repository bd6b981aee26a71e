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
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

const (
	turboName      = "turboimagehost"
	turboUploadURL = "https://www.turboimagehost.com/upload.tu"

	turboContentSafe  = "family"
	turboThumbDefault = "350"
	turboThumbCover   = "600"
)

// turboLinkPattern finds the hosted-page link in the upload response. The
// endpoint answers with markup rather than JSON.
var turboLinkPattern = regexp.MustCompile(`https://www\.turboimagehost\.com/p/[^\s"'<>]+`)

type TurboAdapter struct {
	client *http.Client
}

func NewTurboAdapter(client *http.Client) *TurboAdapter {
	return &TurboAdapter{client: client}
}

func (a *TurboAdapter) Name() string {
	return turboName
}

// generateUploadID mirrors the browser widget, which tags every upload with
// a random session id.
func generateUploadID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

func (a *TurboAdapter) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	thumbSize := turboThumbDefault
	if req.Cover {
		thumbSize = turboThumbCover
	}
	fields := map[string]string{
		"upload_id":  generateUploadID(),
		"content":    turboContentSafe,
		"thumb_size": thumbSize,
	}
	if req.GalleryID != "" {
		fields["gal_id"] = req.GalleryID
	}
	if apiKey := req.Credentials.Get("api_key"); apiKey != "" {
		fields["api_key"] = apiKey
	}

	body, contentType, err := buildMultipart(req, fields, "imagefile")
	if err != nil {
		return nil, err
	}
	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, turboUploadURL, body)
	if reqErr != nil {
		return nil, &Error{Kind: Permanent, Err: reqErr}
	}
	httpReq.Header.Set("Content-Type", contentType)

	respBody, postErr := postMultipart(httpReq, a.client)
	if postErr != nil {
		return nil, postErr
	}

	link := turboLinkPattern.FindString(string(respBody))
	if link == "" {
		snippet := strings.TrimSpace(string(respBody))
		if len(snippet) > 120 {
			snippet = snippet[:120]
		}
		return nil, &Error{Kind: Permanent, Err: errors.New("no image link in response: " + snippet)}
	}
	return &UploadResult{
		URL:       link,
		GalleryID: req.GalleryID,
	}, nil
}
