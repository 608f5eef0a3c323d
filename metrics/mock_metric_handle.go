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

	"github.com/stretchr/testify/mock"
)

// MockMetricHandle is a testify mock of MetricHandle.
type MockMetricHandle struct {
	mock.Mock
}

func (m *MockMetricHandle) IndexCacheFillCount(inc int64, fillType MetricAttr) {
	m.Called(inc, fillType)
}

func (m *MockMetricHandle) IndexReadBytesCount(inc int64, readSource MetricAttr) {
	m.Called(inc, readSource)
}

func (m *MockMetricHandle) ResourceReadBytesCount(inc int64, resourceKind MetricAttr) {
	m.Called(inc, resourceKind)
}

func (m *MockMetricHandle) ResourceReadCount(inc int64, resourceKind MetricAttr, status MetricAttr) {
	m.Called(inc, resourceKind, status)
}

func (m *MockMetricHandle) ResourceReadLatencies(ctx context.Context, latency time.Duration, resourceKind MetricAttr) {
	m.Called(ctx, latency, resourceKind)
}
