// Copyright 2025 Google LLC
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

package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// S3ClientConfig controls the client used by S3 resources.
type S3ClientConfig struct {
	Region string

	// CustomEndpoint switches the client to path-style addressing against an
	// S3 compatible server.
	CustomEndpoint string

	AnonymousAccess bool

	// Static credentials. When empty, the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	MaxRetryDuration time.Duration
}

// NewS3Client loads the default AWS configuration and applies c on top.
func NewS3Client(ctx context.Context, c S3ClientConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	switch {
	case c.AnonymousAccess:
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case c.AccessKeyID != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	if c.MaxRetryDuration > 0 {
		opts = append(opts, awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxBackoffDelay(retry.NewStandard(), c.MaxRetryDuration)
		}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if c.CustomEndpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(c.CustomEndpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// S3Opener reads byte ranges of an S3 object.
type S3Opener struct {
	client *s3.Client
	bucket string
	key    string
}

func NewS3Opener(client *s3.Client, bucket, key string) *S3Opener {
	return &S3Opener{client: client, bucket: bucket, key: key}
}

func (s *S3Opener) OpenRange(ctx context.Context, off, n int64) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+n-1)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return io.NopCloser(strings.NewReader("")), nil
		}
		return nil, fmt.Errorf("s3 get object range: %w", err)
	}
	return resp.Body, nil
}

func (s *S3Opener) Size(ctx context.Context) (int64, bool, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, false, fmt.Errorf("s3://%s/%s not found: %w", s.bucket, s.key, err)
		}
		return 0, false, fmt.Errorf("s3 head object: %w", err)
	}
	if resp.ContentLength == nil {
		return -1, false, nil
	}
	return aws.ToInt64(resp.ContentLength), true, nil
}

func (s *S3Opener) Kind() metrics.MetricAttr {
	return metrics.ResourceKindS3Attr
}
