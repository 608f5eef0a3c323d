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
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// GCSClientConfig controls the storage client used by GCS resources.
type GCSClientConfig struct {
	CustomEndpoint   string
	AnonymousAccess  bool
	MaxRetryDuration time.Duration
	RetryMultiplier  float64
}

// NewGCSClient returns a storage client that retries every operation with
// exponential backoff.
func NewGCSClient(ctx context.Context, c GCSClientConfig) (*storage.Client, error) {
	var opts []option.ClientOption
	if c.CustomEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.CustomEndpoint))
	}
	if c.AnonymousAccess {
		opts = append(opts, option.WithoutAuthentication())
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("go storage client creation failed: %w", err)
	}

	multiplier := c.RetryMultiplier
	if multiplier <= 1 {
		multiplier = 2
	}
	// Reads are idempotent, so every operation is checked for retries.
	sc.SetRetry(
		storage.WithBackoff(gax.Backoff{
			Max:        c.MaxRetryDuration,
			Multiplier: multiplier,
		}),
		storage.WithPolicy(storage.RetryAlways),
		storage.WithErrorFunc(shouldRetry))
	return sc, nil
}

// shouldRetry extends the client's default retry predicate to also retry
// HTTP 401, which GCS occasionally returns for a token that is still valid.
func shouldRetry(err error) bool {
	if storage.ShouldRetry(err) {
		return true
	}
	var typed *googleapi.Error
	return errors.As(err, &typed) && typed.Code == http.StatusUnauthorized
}

// GCSOpener reads byte ranges of a GCS object.
type GCSOpener struct {
	obj *storage.ObjectHandle
}

func NewGCSOpener(client *storage.Client, bucket, object string) *GCSOpener {
	return &GCSOpener{obj: client.Bucket(bucket).Object(object)}
}

func (g *GCSOpener) OpenRange(ctx context.Context, off, n int64) (io.ReadCloser, error) {
	return g.obj.NewRangeReader(ctx, off, n)
}

func (g *GCSOpener) Size(ctx context.Context) (int64, bool, error) {
	attrs, err := g.obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, false, fmt.Errorf("gs://%s/%s: %w", g.obj.BucketName(), g.obj.ObjectName(), err)
		}
		return 0, false, err
	}
	return attrs.Size, true, nil
}

func (g *GCSOpener) Kind() metrics.MetricAttr {
	return metrics.ResourceKindGCSAttr
}
