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
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/retailnext/imghostuploader/config"
)

const s3Name = "s3"

// S3Adapter uploads to a private bucket instead of a public image host.
// Credentials come from the standard AWS chain, not the creds provider.
type S3Adapter struct {
	client       *s3.Client
	bucket       string
	keyPrefix    string
	storageClass string
}

func NewS3Adapter(ctx context.Context, cfg config.S3Config) (*S3Adapter, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("service: s3 bucket not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	storageClass := cfg.StorageClass
	if storageClass == "" {
		storageClass = string(types.StorageClassStandardIa)
	}
	return &S3Adapter{
		client:       s3.NewFromConfig(awsCfg),
		bucket:       cfg.Bucket,
		keyPrefix:    cfg.KeyPrefix,
		storageClass: storageClass,
	}, nil
}

func (a *S3Adapter) Name() string {
	return s3Name
}

func (a *S3Adapter) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	key := path.Join(a.keyPrefix, filepath.Base(req.File.Name()))
	if req.GalleryID != "" {
		key = path.Join(a.keyPrefix, req.GalleryID, filepath.Base(req.File.Name()))
	}

	osFile, err := req.File.Open()
	if err != nil {
		return nil, &Error{Kind: Permanent, Err: err}
	}
	defer func() {
		if closeErr := osFile.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	body := &progressReader{
		reader: osFile,
		total:  req.File.Len(),
		report: req.Progress,
	}
	_, putErr := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: aws.Int64(req.File.Len()),
		StorageClass:  types.StorageClass(a.storageClass),
	})
	if putErr != nil {
		return nil, classifyS3Error(putErr)
	}
	return &UploadResult{
		URL:       fmt.Sprintf("s3://%s/%s", a.bucket, key),
		GalleryID: req.GalleryID,
	}, nil
}

func classifyS3Error(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Transient, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: Permanent, Err: err}
	}

	status := 0
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return &Error{Kind: Transient, Status: status, Err: err}
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return &Error{Kind: Auth, Status: status, Err: err}
		}
		if strings.HasPrefix(apiErr.ErrorCode(), "Throttl") {
			return &Error{Kind: RateLimited, Status: status, Err: err}
		}
	}
	if status != 0 {
		return fromStatus(status, err)
	}
	// Connection-level failure with no protocol response.
	return &Error{Kind: Transient, Err: err}
}
