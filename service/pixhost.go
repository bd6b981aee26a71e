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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/retailnext/imghostuploader/creds"
)

const (
	pixhostName         = "pixhost.to"
	pixhostUploadURL    = "https://api.pixhost.to/images"
	pixhostGalleriesURL = "https://api.pixhost.to/galleries"

	pixhostThumbDefault = "350"
	pixhostContentSafe  = "0"
)

type PixhostAdapter struct {
	client *http.Client
}

func NewPixhostAdapter(client *http.Client) *PixhostAdapter {
	return &PixhostAdapter{client: client}
}

func (a *PixhostAdapter) Name() string {
	return pixhostName
}

type pixhostUploadResponse struct {
	Name     string `json:"name"`
	ShowURL  string `json:"show_url"`
	ThumbURL string `json:"th_url"`
}

type pixhostGalleryResponse struct {
	GalleryName       string `json:"gallery_name"`
	GalleryHash       string `json:"gallery_hash"`
	GalleryUploadHash string `json:"gallery_upload_hash"`
}

func (a *PixhostAdapter) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	fields := map[string]string{
		"content_type": pixhostContentSafe,
		"max_th_size":  pixhostThumbDefault,
	}
	// Gallery ids carry both pixhost hashes, joined when the gallery was
	// created; the dispatcher treats the id as opaque.
	galleryHash, uploadHash, hasGallery := strings.Cut(req.GalleryID, "/")
	if hasGallery {
		fields["gallery_hash"] = galleryHash
		fields["gallery_upload_hash"] = uploadHash
	}

	body, contentType, err := buildMultipart(req, fields, "img")
	if err != nil {
		return nil, err
	}
	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, pixhostUploadURL, body)
	if reqErr != nil {
		return nil, &Error{Kind: Permanent, Err: reqErr}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	respBody, postErr := postMultipart(httpReq, a.client)
	if postErr != nil {
		return nil, postErr
	}

	var parsed pixhostUploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &Error{Kind: Permanent, Err: err}
	}
	if parsed.ShowURL == "" {
		return nil, &Error{Kind: Permanent, Err: errors.New("response missing show_url")}
	}
	return &UploadResult{
		URL:       parsed.ShowURL,
		ThumbURL:  parsed.ThumbURL,
		GalleryID: req.GalleryID,
	}, nil
}

// CreateGallery asks pixhost for a fresh gallery and returns an opaque id
// encoding both hashes the upload endpoint needs.
func (a *PixhostAdapter) CreateGallery(ctx context.Context, title string, _ creds.Credentials) (string, error) {
	form := url.Values{}
	form.Set("gallery_title", sanitizeGalleryTitle(title))

	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, pixhostGalleriesURL, strings.NewReader(form.Encode()))
	if reqErr != nil {
		return "", &Error{Kind: Permanent, Err: reqErr}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	client := a.client
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fromTransport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fromStatus(resp.StatusCode, nil)
	}
	if readErr != nil {
		return "", fromTransport(readErr)
	}

	var parsed pixhostGalleryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &Error{Kind: Permanent, Err: err}
	}
	if parsed.GalleryHash == "" || parsed.GalleryUploadHash == "" {
		return "", &Error{Kind: Permanent, Err: errors.New("response missing gallery hashes")}
	}
	return parsed.GalleryHash + "/" + parsed.GalleryUploadHash, nil
}

func sanitizeGalleryTitle(title string) string {
	cleaned := strings.NewReplacer("[", "", "]", "").Replace(title)
	return strings.TrimSpace(cleaned)
}
