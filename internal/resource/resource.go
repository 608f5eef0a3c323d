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

// Package resource provides the byte sources an index reads from: in-memory
// buffers, local files and ranged readers over HTTP, GCS and S3, plus
// decorators that add telemetry and throttling.
package resource

import (
	"context"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// Resource is a random-access byte source.
//
// ReadAt is best effort: it may return fewer bytes than len(p) without an
// error, and returns (0, nil) only at the end of the data. A non-nil error
// means the read failed; the byte count returned alongside it is not used.
//
// Length reports the total size and whether it is known.
//
// CachedDataEnd returns the exclusive end of the data the resource already
// holds in its own cache from off onwards, so that reading [off, end) is not
// expected to block. It returns off when nothing is cached.
type Resource interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	Length() (int64, bool)
	CachedDataEnd(off int64) int64
}

// Kinded is implemented by resources that can report which backend serves
// them, for metric attribution.
type Kinded interface {
	Kind() metrics.MetricAttr
}

// KindOf returns the backend kind of r, or memory when r does not say.
func KindOf(r Resource) metrics.MetricAttr {
	if k, ok := r.(Kinded); ok {
		return k.Kind()
	}
	return metrics.ResourceKindMemoryAttr
}
