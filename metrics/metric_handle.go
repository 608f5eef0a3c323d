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

package metrics

import (
	"context"
	"time"
)

// MetricAttr is the value of a metric attribute.
type MetricAttr string

// Constants for attribute read_source
const (
	ReadSourceCacheAttr    MetricAttr = "cache"
	ReadSourceResourceAttr MetricAttr = "resource"
)

// Constants for attribute fill_type
const (
	FillTypeFailedAttr  MetricAttr = "failed"
	FillTypeFreshAttr   MetricAttr = "fresh"
	FillTypeSkippedAttr MetricAttr = "skipped"
	FillTypeTopUpAttr   MetricAttr = "top_up"
)

// Constants for attribute resource_kind
const (
	ResourceKindFileAttr   MetricAttr = "file"
	ResourceKindGCSAttr    MetricAttr = "gcs"
	ResourceKindHTTPAttr   MetricAttr = "http"
	ResourceKindMemoryAttr MetricAttr = "memory"
	ResourceKindS3Attr     MetricAttr = "s3"
)

// Constants for attribute status
const (
	StatusFailedAttr     MetricAttr = "failed"
	StatusSuccessfulAttr MetricAttr = "successful"
)

// MetricHandle provides an interface for recording metrics.
// The methods of this interface are safe for concurrent use.
type MetricHandle interface {
	// IndexCacheFillCount - The cumulative number of block cache fill attempts made by the index, by outcome: fresh, top_up, failed or skipped.
	IndexCacheFillCount(inc int64, fillType MetricAttr)

	// IndexReadBytesCount - The cumulative number of bytes returned by the index, split by whether they came from the block cache or directly from the resource.
	IndexReadBytesCount(inc int64, readSource MetricAttr)

	// ResourceReadBytesCount - The cumulative number of bytes read from the underlying resource.
	ResourceReadBytesCount(inc int64, resourceKind MetricAttr)

	// ResourceReadCount - The cumulative number of read calls made on the underlying resource, with their status.
	ResourceReadCount(inc int64, resourceKind MetricAttr, status MetricAttr)

	// ResourceReadLatencies - The cumulative distribution of resource read latencies.
	ResourceReadLatencies(ctx context.Context, latency time.Duration, resourceKind MetricAttr)
}
