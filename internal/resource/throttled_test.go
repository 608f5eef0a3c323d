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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

func TestThrottledResource_CapsReadAtBurst(t *testing.T) {
	r := NewThrottledResource(NewMemoryResource(make([]byte, 100)), 10)

	n, err := r.ReadAt(context.Background(), make([]byte, 50), 0)

	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestThrottledResource_CancelledWait(t *testing.T) {
	r := NewThrottledResource(NewMemoryResource(make([]byte, 100)), 10)
	_, err := r.ReadAt(context.Background(), make([]byte, 10), 0)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// The bucket is empty and refills at 10 bytes per second.
	_, err = r.ReadAt(ctx, make([]byte, 10), 10)

	assert.Error(t, err)
}

func TestThrottledResource_PassesThroughProbes(t *testing.T) {
	f := NewMemoryResource(make([]byte, 64))
	f.HideLength = true
	r := NewThrottledResource(f, 1000)

	_, ok := r.Length()

	assert.False(t, ok)
	assert.EqualValues(t, 64, r.CachedDataEnd(3))
	assert.Equal(t, metrics.ResourceKindMemoryAttr, r.Kind())
}
