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
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/googlecloudplatform/mediaindex/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const logInterval = 5 * time.Minute

var (
	unrecognizedAttr atomic.Value

	indexCacheFillCountFillTypeFailedAttrSet  = metric.WithAttributeSet(attribute.NewSet(attribute.String("fill_type", "failed")))
	indexCacheFillCountFillTypeFreshAttrSet   = metric.WithAttributeSet(attribute.NewSet(attribute.String("fill_type", "fresh")))
	indexCacheFillCountFillTypeSkippedAttrSet = metric.WithAttributeSet(attribute.NewSet(attribute.String("fill_type", "skipped")))
	indexCacheFillCountFillTypeTopUpAttrSet   = metric.WithAttributeSet(attribute.NewSet(attribute.String("fill_type", "top_up")))

	indexReadBytesCountReadSourceCacheAttrSet    = metric.WithAttributeSet(attribute.NewSet(attribute.String("read_source", "cache")))
	indexReadBytesCountReadSourceResourceAttrSet = metric.WithAttributeSet(attribute.NewSet(attribute.String("read_source", "resource")))

	resourceKindFileAttrSet   = attribute.NewSet(attribute.String("resource_kind", "file"))
	resourceKindGCSAttrSet    = attribute.NewSet(attribute.String("resource_kind", "gcs"))
	resourceKindHTTPAttrSet   = attribute.NewSet(attribute.String("resource_kind", "http"))
	resourceKindMemoryAttrSet = attribute.NewSet(attribute.String("resource_kind", "memory"))
	resourceKindS3AttrSet     = attribute.NewSet(attribute.String("resource_kind", "s3"))
)

type histogramRecord struct {
	ctx        context.Context
	instrument metric.Int64Histogram
	value      int64
	attributes metric.RecordOption
}

// resourceKindCounters holds one atomic per resource kind.
type resourceKindCounters struct {
	file, gcs, http, memory, s3 atomic.Int64
}

func (c *resourceKindCounters) add(inc int64, resourceKind MetricAttr) bool {
	switch resourceKind {
	case ResourceKindFileAttr:
		c.file.Add(inc)
	case ResourceKindGCSAttr:
		c.gcs.Add(inc)
	case ResourceKindHTTPAttr:
		c.http.Add(inc)
	case ResourceKindMemoryAttr:
		c.memory.Add(inc)
	case ResourceKindS3Attr:
		c.s3.Add(inc)
	default:
		return false
	}
	return true
}

func (c *resourceKindCounters) observe(obsrv metric.Int64Observer, extra ...attribute.KeyValue) {
	withExtra := func(s attribute.Set) metric.ObserveOption {
		if len(extra) == 0 {
			return metric.WithAttributeSet(s)
		}
		return metric.WithAttributeSet(attribute.NewSet(append(s.ToSlice(), extra...)...))
	}
	conditionallyObserve(obsrv, &c.file, withExtra(resourceKindFileAttrSet))
	conditionallyObserve(obsrv, &c.gcs, withExtra(resourceKindGCSAttrSet))
	conditionallyObserve(obsrv, &c.http, withExtra(resourceKindHTTPAttrSet))
	conditionallyObserve(obsrv, &c.memory, withExtra(resourceKindMemoryAttrSet))
	conditionallyObserve(obsrv, &c.s3, withExtra(resourceKindS3AttrSet))
}

type otelMetrics struct {
	ch                                          chan histogramRecord
	wg                                          *sync.WaitGroup
	indexCacheFillCountFillTypeFailedAtomic     *atomic.Int64
	indexCacheFillCountFillTypeFreshAtomic      *atomic.Int64
	indexCacheFillCountFillTypeSkippedAtomic    *atomic.Int64
	indexCacheFillCountFillTypeTopUpAtomic      *atomic.Int64
	indexReadBytesCountReadSourceCacheAtomic    *atomic.Int64
	indexReadBytesCountReadSourceResourceAtomic *atomic.Int64
	resourceReadBytesCount                      *resourceKindCounters
	resourceReadCountStatusFailed               *resourceKindCounters
	resourceReadCountStatusSuccessful           *resourceKindCounters
	resourceReadLatencies                       metric.Int64Histogram
}

func (o *otelMetrics) IndexCacheFillCount(
	inc int64, fillType MetricAttr) {
	if inc < 0 {
		logger.Errorf("Counter metric index/cache_fill_count received a negative increment: %d", inc)
		return
	}
	switch fillType {
	case FillTypeFailedAttr:
		o.indexCacheFillCountFillTypeFailedAtomic.Add(inc)
	case FillTypeFreshAttr:
		o.indexCacheFillCountFillTypeFreshAtomic.Add(inc)
	case FillTypeSkippedAttr:
		o.indexCacheFillCountFillTypeSkippedAtomic.Add(inc)
	case FillTypeTopUpAttr:
		o.indexCacheFillCountFillTypeTopUpAtomic.Add(inc)
	default:
		updateUnrecognizedAttribute(string(fillType))
		return
	}
}

func (o *otelMetrics) IndexReadBytesCount(
	inc int64, readSource MetricAttr) {
	if inc < 0 {
		logger.Errorf("Counter metric index/read_bytes_count received a negative increment: %d", inc)
		return
	}
	switch readSource {
	case ReadSourceCacheAttr:
		o.indexReadBytesCountReadSourceCacheAtomic.Add(inc)
	case ReadSourceResourceAttr:
		o.indexReadBytesCountReadSourceResourceAtomic.Add(inc)
	default:
		updateUnrecognizedAttribute(string(readSource))
		return
	}
}

func (o *otelMetrics) ResourceReadBytesCount(
	inc int64, resourceKind MetricAttr) {
	if inc < 0 {
		logger.Errorf("Counter metric resource/read_bytes_count received a negative increment: %d", inc)
		return
	}
	if !o.resourceReadBytesCount.add(inc, resourceKind) {
		updateUnrecognizedAttribute(string(resourceKind))
	}
}

func (o *otelMetrics) ResourceReadCount(
	inc int64, resourceKind MetricAttr, status MetricAttr) {
	if inc < 0 {
		logger.Errorf("Counter metric resource/read_count received a negative increment: %d", inc)
		return
	}
	var counters *resourceKindCounters
	switch status {
	case StatusFailedAttr:
		counters = o.resourceReadCountStatusFailed
	case StatusSuccessfulAttr:
		counters = o.resourceReadCountStatusSuccessful
	default:
		updateUnrecognizedAttribute(string(status))
		return
	}
	if !counters.add(inc, resourceKind) {
		updateUnrecognizedAttribute(string(resourceKind))
	}
}

func (o *otelMetrics) ResourceReadLatencies(
	ctx context.Context, latency time.Duration, resourceKind MetricAttr) {
	var record histogramRecord
	switch resourceKind {
	case ResourceKindFileAttr:
		record = histogramRecord{ctx: ctx, instrument: o.resourceReadLatencies, value: latency.Microseconds(), attributes: metric.WithAttributeSet(resourceKindFileAttrSet)}
	case ResourceKindGCSAttr:
		record = histogramRecord{ctx: ctx, instrument: o.resourceReadLatencies, value: latency.Microseconds(), attributes: metric.WithAttributeSet(resourceKindGCSAttrSet)}
	case ResourceKindHTTPAttr:
		record = histogramRecord{ctx: ctx, instrument: o.resourceReadLatencies, value: latency.Microseconds(), attributes: metric.WithAttributeSet(resourceKindHTTPAttrSet)}
	case ResourceKindMemoryAttr:
		record = histogramRecord{ctx: ctx, instrument: o.resourceReadLatencies, value: latency.Microseconds(), attributes: metric.WithAttributeSet(resourceKindMemoryAttrSet)}
	case ResourceKindS3Attr:
		record = histogramRecord{ctx: ctx, instrument: o.resourceReadLatencies, value: latency.Microseconds(), attributes: metric.WithAttributeSet(resourceKindS3AttrSet)}
	default:
		updateUnrecognizedAttribute(string(resourceKind))
		return
	}

	select {
	case o.ch <- record: // Do nothing
	default: // Unblock writes to channel if it's full.
	}
}

// NewOTelMetrics returns a MetricHandle backed by the global otel meter
// provider. Histogram recordings are handed to workers over a channel of
// bufferSize and dropped when it is full.
func NewOTelMetrics(ctx context.Context, workers int, bufferSize int) (*otelMetrics, error) {
	ch := make(chan histogramRecord, bufferSize)
	var wg sync.WaitGroup
	startSampledLogging(ctx)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range ch {
				if record.attributes != nil {
					record.instrument.Record(record.ctx, record.value, record.attributes)
				} else {
					record.instrument.Record(record.ctx, record.value)
				}
			}
		}()
	}
	meter := otel.Meter("mediaindex")
	var indexCacheFillCountFillTypeFailedAtomic,
		indexCacheFillCountFillTypeFreshAtomic,
		indexCacheFillCountFillTypeSkippedAtomic,
		indexCacheFillCountFillTypeTopUpAtomic atomic.Int64

	var indexReadBytesCountReadSourceCacheAtomic,
		indexReadBytesCountReadSourceResourceAtomic atomic.Int64

	var resourceReadBytesCount,
		resourceReadCountStatusFailed,
		resourceReadCountStatusSuccessful resourceKindCounters

	_, err0 := meter.Int64ObservableCounter("index/cache_fill_count",
		metric.WithDescription("The cumulative number of block cache fill attempts made by the index, by outcome: fresh, top_up, failed or skipped."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &indexCacheFillCountFillTypeFailedAtomic, indexCacheFillCountFillTypeFailedAttrSet)
			conditionallyObserve(obsrv, &indexCacheFillCountFillTypeFreshAtomic, indexCacheFillCountFillTypeFreshAttrSet)
			conditionallyObserve(obsrv, &indexCacheFillCountFillTypeSkippedAtomic, indexCacheFillCountFillTypeSkippedAttrSet)
			conditionallyObserve(obsrv, &indexCacheFillCountFillTypeTopUpAtomic, indexCacheFillCountFillTypeTopUpAttrSet)
			return nil
		}))

	_, err1 := meter.Int64ObservableCounter("index/read_bytes_count",
		metric.WithDescription("The cumulative number of bytes returned by the index, split by whether they came from the block cache or directly from the resource."),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &indexReadBytesCountReadSourceCacheAtomic, indexReadBytesCountReadSourceCacheAttrSet)
			conditionallyObserve(obsrv, &indexReadBytesCountReadSourceResourceAtomic, indexReadBytesCountReadSourceResourceAttrSet)
			return nil
		}))

	_, err2 := meter.Int64ObservableCounter("resource/read_bytes_count",
		metric.WithDescription("The cumulative number of bytes read from the underlying resource."),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			resourceReadBytesCount.observe(obsrv)
			return nil
		}))

	_, err3 := meter.Int64ObservableCounter("resource/read_count",
		metric.WithDescription("The cumulative number of read calls made on the underlying resource, with their status."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			resourceReadCountStatusFailed.observe(obsrv, attribute.String("status", string(StatusFailedAttr)))
			resourceReadCountStatusSuccessful.observe(obsrv, attribute.String("status", string(StatusSuccessfulAttr)))
			return nil
		}))

	resourceReadLatencies, err4 := meter.Int64Histogram("resource/read_latencies",
		metric.WithDescription("The cumulative distribution of resource read latencies."),
		metric.WithUnit("us"),
		metric.WithExplicitBucketBoundaries(50, 100, 200, 400, 800, 1200, 2000, 5000, 10000, 20000, 50000, 100000, 200000, 500000, 1000000, 2000000, 5000000, 10000000))

	errs := []error{err0, err1, err2, err3, err4}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &otelMetrics{
		ch:                                          ch,
		wg:                                          &wg,
		indexCacheFillCountFillTypeFailedAtomic:     &indexCacheFillCountFillTypeFailedAtomic,
		indexCacheFillCountFillTypeFreshAtomic:      &indexCacheFillCountFillTypeFreshAtomic,
		indexCacheFillCountFillTypeSkippedAtomic:    &indexCacheFillCountFillTypeSkippedAtomic,
		indexCacheFillCountFillTypeTopUpAtomic:      &indexCacheFillCountFillTypeTopUpAtomic,
		indexReadBytesCountReadSourceCacheAtomic:    &indexReadBytesCountReadSourceCacheAtomic,
		indexReadBytesCountReadSourceResourceAtomic: &indexReadBytesCountReadSourceResourceAtomic,
		resourceReadBytesCount:                      &resourceReadBytesCount,
		resourceReadCountStatusFailed:               &resourceReadCountStatusFailed,
		resourceReadCountStatusSuccessful:           &resourceReadCountStatusSuccessful,
		resourceReadLatencies:                       resourceReadLatencies,
	}, nil
}

func (o *otelMetrics) Close() {
	close(o.ch)
	o.wg.Wait()
}

func conditionallyObserve(obsrv metric.Int64Observer, counter *atomic.Int64, obsrvOptions ...metric.ObserveOption) {
	if val := counter.Load(); val > 0 {
		obsrv.Observe(val, obsrvOptions...)
	}
}

func updateUnrecognizedAttribute(newValue string) {
	unrecognizedAttr.CompareAndSwap("", newValue)
}

// startSampledLogging starts a goroutine that logs unrecognized attributes periodically.
func startSampledLogging(ctx context.Context) {
	unrecognizedAttr.Store("")

	go func() {
		ticker := time.NewTicker(logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logUnrecognizedAttribute()
			}
		}
	}()
}

// logUnrecognizedAttribute retrieves and logs any unrecognized attributes.
func logUnrecognizedAttribute() {
	if currentAttr := unrecognizedAttr.Swap("").(string); currentAttr != "" {
		logger.Tracef("Attribute %s is not declared", currentAttr)
	}
}
