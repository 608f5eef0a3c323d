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

	"golang.org/x/time/rate"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// ThrottledResource limits the bandwidth with which the wrapped resource is
// read. A read larger than the limiter's burst is served short.
type ThrottledResource struct {
	wrapped  Resource
	throttle *rate.Limiter
}

// NewThrottledResource limits r to bytesPerSec, with a burst of one second's
// worth of bytes.
func NewThrottledResource(r Resource, bytesPerSec float64) *ThrottledResource {
	burst := max(int(bytesPerSec), 1)
	return &ThrottledResource{
		wrapped:  r,
		throttle: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (t *ThrottledResource) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	// We can't serve a read larger than the throttle's capacity.
	if len(p) > t.throttle.Burst() {
		p = p[:t.throttle.Burst()]
	}
	if len(p) == 0 {
		return t.wrapped.ReadAt(ctx, p, off)
	}
	if err := t.throttle.WaitN(ctx, len(p)); err != nil {
		return 0, err
	}
	return t.wrapped.ReadAt(ctx, p, off)
}

func (t *ThrottledResource) Length() (int64, bool) {
	return t.wrapped.Length()
}

func (t *ThrottledResource) CachedDataEnd(off int64) int64 {
	return t.wrapped.CachedDataEnd(off)
}

func (t *ThrottledResource) Kind() metrics.MetricAttr {
	return KindOf(t.wrapped)
}
