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
	"sync/atomic"

	"github.com/googlecloudplatform/mediaindex/clock"
	"github.com/googlecloudplatform/mediaindex/metrics"
	"github.com/googlecloudplatform/mediaindex/tracing"
)

// MonitoringResource records metrics and a span for every read made on the
// wrapped resource.
type MonitoringResource struct {
	wrapped      Resource
	kind         metrics.MetricAttr
	metricHandle metrics.MetricHandle
	traceHandle  tracing.TraceHandle
	clock        clock.Clock

	calls atomic.Int64
	bytes atomic.Int64
}

func NewMonitoringResource(r Resource, mh metrics.MetricHandle, th tracing.TraceHandle, clk clock.Clock) *MonitoringResource {
	return &MonitoringResource{
		wrapped:      r,
		kind:         KindOf(r),
		metricHandle: mh,
		traceHandle:  th,
		clock:        clk,
	}
}

func (m *MonitoringResource) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	ctx, span := m.traceHandle.StartSpan(ctx, "resource.ReadAt")
	defer m.traceHandle.EndSpan(span)

	start := m.clock.Now()
	n, err := m.wrapped.ReadAt(ctx, p, off)
	m.metricHandle.ResourceReadLatencies(ctx, m.clock.Since(start), m.kind)
	m.calls.Add(1)

	if err != nil {
		m.traceHandle.RecordError(span, err)
		m.metricHandle.ResourceReadCount(1, m.kind, metrics.StatusFailedAttr)
		return n, err
	}
	m.traceHandle.SetReadAttributes(span, off, len(p), n)
	m.metricHandle.ResourceReadCount(1, m.kind, metrics.StatusSuccessfulAttr)
	m.metricHandle.ResourceReadBytesCount(int64(n), m.kind)
	m.bytes.Add(int64(n))
	return n, nil
}

func (m *MonitoringResource) Length() (int64, bool) {
	return m.wrapped.Length()
}

func (m *MonitoringResource) CachedDataEnd(off int64) int64 {
	return m.wrapped.CachedDataEnd(off)
}

func (m *MonitoringResource) Kind() metrics.MetricAttr {
	return m.kind
}

// Stats returns the number of reads made so far and the bytes they returned.
func (m *MonitoringResource) Stats() (calls, bytes int64) {
	return m.calls.Load(), m.bytes.Load()
}
