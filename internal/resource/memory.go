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

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// MemoryResource serves reads from an in-memory byte slice. All of its data
// is resident, so CachedDataEnd always reports the end of the data.
type MemoryResource struct {
	data []byte

	// MaxReadSize caps the number of bytes a single ReadAt returns. Zero
	// means no cap. Useful for exercising short reads.
	MaxReadSize int

	// HideLength makes Length report an unknown size.
	HideLength bool
}

// NewMemoryResource returns a resource over data. The slice is not copied.
func NewMemoryResource(data []byte) *MemoryResource {
	return &MemoryResource{data: data}
}

func (m *MemoryResource) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	if off >= int64(len(m.data)) {
		return 0, nil
	}
	if m.MaxReadSize > 0 && len(p) > m.MaxReadSize {
		p = p[:m.MaxReadSize]
	}
	return copy(p, m.data[off:]), nil
}

func (m *MemoryResource) Length() (int64, bool) {
	if m.HideLength {
		return -1, false
	}
	return int64(len(m.data)), true
}

func (m *MemoryResource) CachedDataEnd(off int64) int64 {
	if off >= int64(len(m.data)) {
		return off
	}
	return int64(len(m.data))
}

func (m *MemoryResource) Kind() metrics.MetricAttr {
	return metrics.ResourceKindMemoryAttr
}
