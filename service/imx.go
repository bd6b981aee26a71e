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
	"net/http"
	"strings"
)

const (
	imxName      = "imx.to"
	imxUploadURL = "https://api.imx.to/v1/upload.php"

	imxThumbDefault = "350"
	imxThumbCover   = "600"
)

type ImxAdapter struct {
	client *http.Client
}

func NewImxAdapter(client *http.Client) *ImxAdapter {
	return &ImxAdapter{client: client}
}

func (a *ImxAdapter) Name() string {
	return imxName
}

type imxResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ImageURL string `json:"image_url"`
	ThumbURL string `json:"thumb_url"`
}

func (a *ImxAdapter) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	apiKey := req.Credentials.Get("api_key")
	if apiKey == "" {
		return nil, &Error{Kind: Auth, Err: errors.New("missing api_key credential")}
	}

	thumbSize := imxThumbDefault
	if req.Cover {
		thumbSize = imxThumbCover
	}
	fields := map[string]string{
		"api_key":    apiKey,
		"thumb_size": thumbSize,
		"format":     "Fixed Width",
	}
	if req.GalleryID != "" {
		fields["gallery_id"] = req.GalleryID
	}

	body, contentType, err := buildMultipart(req, fields, "image")
	if err != nil {
		return nil, err
	}
	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, imxUploadURL, body)
	if reqErr != nil {
		return nil, &Error{Kind: Permanent, Err: reqErr}
	}
	httpReq.Header.Set("Content-Type", contentType)

	respBody, postErr := postMultipart(httpReq, a.client)
	if postErr != nil {
		return nil, postErr
	}

	var parsed imxResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &Error{Kind: Permanent, Err: err}
	}
	if !strings.EqualFold(parsed.Status, "ok") && !strings.EqualFold(parsed.Status, "success") {
		err := errors.New(parsed.Message)
		if strings.Contains(strings.ToLower(parsed.Message), "key") {
			return nil, &Error{Kind: Auth, Err: err}
		}
		return nil, &Error{Kind: Permanent, Err: err}
	}
	return &UploadResult{
		URL:       parsed.ImageURL,
		ThumbURL:  parsed.ThumbURL,
		GalleryID: req.GalleryID,
	}, nil
}
