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
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"
)

const maxResponseBytes = 1 << 20

var defaultHTTPClient = &http.Client{
	// Per-attempt deadlines come from the request context; this is only a
	// safety net against a wedged transport.
	Timeout: 10 * time.Minute,
}

type progressReader struct {
	reader io.Reader
	total  int64
	sent   int64
	report func(sent, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.sent += int64(n)
		if pr.report != nil {
			pr.report(pr.sent, pr.total)
		}
	}
	return n, err
}

// postMultipart streams the request file as a multipart form to url and
// returns the response body. The file is re-fingerprinted on open; the form
// is piped so large files never sit in memory whole. Errors are returned
// already classified.
func postMultipart(req *http.Request, client *http.Client) ([]byte, error) {
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fromTransport(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return body, fromStatus(resp.StatusCode, nil)
	}
	if readErr != nil {
		return nil, fromTransport(readErr)
	}
	return body, nil
}

// buildMultipart assembles the piped multipart body for an upload request.
// The returned reader produces fields first, then the file under fileField.
func buildMultipart(upload UploadRequest, fields map[string]string, fileField string) (io.ReadCloser, string, error) {
	osFile, err := upload.File.Open()
	if err != nil {
		return nil, "", &Error{Kind: Permanent, Err: err}
	}

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		defer func() {
			if closeErr := osFile.Close(); closeErr != nil {
				panic(closeErr)
			}
		}()
		for name, value := range fields {
			if err := form.WriteField(name, value); err != nil {
				_ = pipeWriter.CloseWithError(err)
				return
			}
		}
		part, err := form.CreateFormFile(fileField, filepath.Base(upload.File.Name()))
		if err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		body := &progressReader{
			reader: osFile,
			total:  upload.File.Len(),
			report: upload.Progress,
		}
		if _, err := io.Copy(part, body); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		if err := form.Close(); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		_ = pipeWriter.Close()
	}()

	return pipeReader, form.FormDataContentType(), nil
}
