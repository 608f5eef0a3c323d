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

type noopMetrics struct{}

func (*noopMetrics) IndexCacheFillCount(inc int64, fillType MetricAttr) {}

func (*noopMetrics) IndexReadBytesCount(inc int64, readSource MetricAttr) {}

func (*noopMetrics) ResourceReadBytesCount(inc int64, resourceKind MetricAttr) {}

func (*noopMetrics) ResourceReadCount(inc int64, resourceKind MetricAttr, status MetricAttr) {}

func (*noopMetrics) ResourceReadLatencies(ctx context.Context, latency time.Duration, resourceKind MetricAttr) {
}

func NewNoopMetrics() MetricHandle {
	var n noopMetrics
	return &n
}
