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

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/googlecloudplatform/mediaindex/cfg"
	"github.com/googlecloudplatform/mediaindex/clock"
	"github.com/googlecloudplatform/mediaindex/common"
	"github.com/googlecloudplatform/mediaindex/internal/logger"
	"github.com/googlecloudplatform/mediaindex/internal/mediaindex"
	"github.com/googlecloudplatform/mediaindex/internal/monitor"
	"github.com/googlecloudplatform/mediaindex/internal/resource"
	"github.com/googlecloudplatform/mediaindex/internal/util"
	"github.com/googlecloudplatform/mediaindex/metrics"
	"github.com/googlecloudplatform/mediaindex/tracing"
)

const (
	metricWorkers    = 3
	metricBufferSize = 256
	retryMultiplier  = 2
)

// Run reads every source as configured, writing the data to stdout when a
// single source is given.
func Run(c cfg.Config, sources []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return readSources(ctx, &c, sources, os.Stdout)
}

// sourceSummary describes what reading one source cost.
type sourceSummary struct {
	source        string
	bytes         int64
	resourceCalls int64
	resourceBytes int64
}

func readSources(ctx context.Context, c *cfg.Config, sources []string, out io.Writer) (err error) {
	logger.SetLogFormat(c.Logging.Format)
	if err = logger.InitLogFile(c.Logging); err != nil {
		return fmt.Errorf("init log file: %w", err)
	}
	logger.Infof("Start mediaindex/%s reading %d source(s)", common.GetVersion(), len(sources))
	if s, yamlErr := util.YAMLStringify(c); yamlErr != nil {
		logger.Warnf("Failed to stringify config: %v", yamlErr)
	} else {
		logger.Debugf("mediaindex config:\n%s", s)
	}

	var metricExporterShutdownFn common.ShutdownFn
	closeMetrics := func() {}
	var metricHandle metrics.MetricHandle = metrics.NewNoopMetrics()
	if c.Metrics.PrometheusPort > 0 {
		metricExporterShutdownFn = monitor.SetupOTelMetricExporters(ctx, c)
		mh, mhErr := metrics.NewOTelMetrics(ctx, metricWorkers, metricBufferSize)
		if mhErr != nil {
			logger.Errorf("Failed to create otel metrics, continuing without them: %v", mhErr)
		} else {
			metricHandle = mh
			closeMetrics = mh.Close
		}
	}
	traceHandle := tracing.NewNoopTracer()
	if c.Monitoring.TracingMode != cfg.TracingModeDisabled {
		traceHandle = tracing.NewOTelTracer()
	}
	shutdownFn := common.JoinShutdownFunc(metricExporterShutdownFn, monitor.SetupTracing(ctx, c))
	defer func() {
		closeMetrics()
		if shutdownErr := shutdownFn(context.Background()); shutdownErr != nil {
			logger.Errorf("Error while shutting down telemetry exporters: %v", shutdownErr)
		}
	}()
	opts := resourceOptions(c, metricHandle, traceHandle)

	if c.Read.Discard {
		out = io.Discard
	} else if len(sources) > 1 {
		logger.Infof("Output is discarded when reading %d sources", len(sources))
		out = io.Discard
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(int(c.Read.Parallelism))
	for _, source := range sources {
		g.Go(func() error {
			s, err := readSource(ctx, c, source, out, opts, metricHandle)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			total.Add(s.bytes)
			logger.Infof("Read %d bytes from %s using %d resource calls returning %d bytes",
				s.bytes, s.source, s.resourceCalls, s.resourceBytes)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		logger.Errorf("Reading failed: %v", err)
		return err
	}
	logger.Infof("Done: read %d bytes from %d source(s)", total.Load(), len(sources))
	return nil
}

func resourceOptions(c *cfg.Config, mh metrics.MetricHandle, th tracing.TraceHandle) resource.Options {
	return resource.Options{
		ChunkSize:           int(util.KiBsToBytes(c.Resource.ChunkSizeKb)),
		ThrottleBytesPerSec: c.Resource.ThrottleBytesPerSec,
		HTTPTimeout:         c.Resource.HttpTimeout,
		GCS: resource.GCSClientConfig{
			CustomEndpoint:   c.Resource.CustomEndpoint,
			AnonymousAccess:  c.Resource.AnonymousAccess,
			MaxRetryDuration: c.Resource.MaxRetrySleep,
			RetryMultiplier:  retryMultiplier,
		},
		S3: resource.S3ClientConfig{
			Region:           c.Resource.S3Region,
			CustomEndpoint:   c.Resource.CustomEndpoint,
			AnonymousAccess:  c.Resource.AnonymousAccess,
			MaxRetryDuration: c.Resource.MaxRetrySleep,
		},
		MetricHandle: mh,
		TraceHandle:  th,
		Clock:        clock.RealClock{},
	}
}

// blockSize returns the index block size the config asks for.
func blockSize(c *cfg.IndexConfig) int {
	if c.SelectBlockSize {
		return mediaindex.SelectBlockSize(int(c.BlockSize))
	}
	return int(c.BlockSize)
}

// readSource streams the configured range of source into out through an
// index, in read-size chunks.
func readSource(ctx context.Context, c *cfg.Config, source string, out io.Writer, opts resource.Options, mh metrics.MetricHandle) (sourceSummary, error) {
	r, err := resource.Open(ctx, source, opts)
	if err != nil {
		return sourceSummary{}, err
	}
	defer r.Close()

	idx := mediaindex.New(r, blockSize(&c.Index), mediaindex.WithMetricHandle(mh))
	logger.Debugf("Index %s reading %s with block size %d", idx.ID(), source, idx.BlockSize())

	rs := mediaindex.NewReadSeeker(ctx, idx)
	whence := io.SeekStart
	offset := c.Read.Offset
	if c.Read.FromEnd {
		whence = io.SeekEnd
		offset = -offset
	}
	if _, err = rs.Seek(offset, whence); err != nil {
		return sourceSummary{}, fmt.Errorf("seek to %d: %w", c.Read.Offset, err)
	}

	var src io.Reader = rs
	if c.Read.Length >= 0 {
		src = io.LimitReader(rs, c.Read.Length)
	}
	// Hide any ReaderFrom on out so that every Read uses buf.
	buf := make([]byte, c.Read.ReadSize)
	n, err := io.CopyBuffer(struct{ io.Writer }{out}, src, buf)
	s := sourceSummary{source: source, bytes: n}
	s.resourceCalls, s.resourceBytes = r.Stats()
	if err != nil {
		return s, fmt.Errorf("read at %d: %w", idx.Tell(), err)
	}
	return s, nil
}
