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
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/googlecloudplatform/mediaindex/clock"
	"github.com/googlecloudplatform/mediaindex/internal/logger"
	"github.com/googlecloudplatform/mediaindex/metrics"
	"github.com/googlecloudplatform/mediaindex/tracing"
)

// ErrUnsupportedScheme is returned by Open for URIs it cannot serve.
var ErrUnsupportedScheme = errors.New("unsupported resource scheme")

// Options configures the resources returned by Open.
type Options struct {
	// ChunkSize is the read-ahead of network resources, in bytes.
	ChunkSize int

	// ThrottleBytesPerSec limits read throughput. Zero disables throttling.
	ThrottleBytesPerSec float64

	HTTPTimeout time.Duration
	GCS         GCSClientConfig
	S3          S3ClientConfig

	// Nil handles and clock fall back to noop implementations and the real
	// clock.
	MetricHandle metrics.MetricHandle
	TraceHandle  tracing.TraceHandle
	Clock        clock.Clock
}

// Opened is a resource returned by Open. It must be closed once reading is
// done.
type Opened struct {
	Resource
	monitor *MonitoringResource
	closeFn func() error
}

// Stats returns the number of reads made on the backend and the bytes they
// returned.
func (o *Opened) Stats() (calls, bytes int64) {
	return o.monitor.Stats()
}

func (o *Opened) Kind() metrics.MetricAttr {
	return o.monitor.Kind()
}

func (o *Opened) Close() error {
	if o.closeFn == nil {
		return nil
	}
	return o.closeFn()
}

// Open returns the resource named by uri. Supported forms are a bare path or
// file:// URL, http:// and https:// URLs, gs://bucket/object,
// s3://bucket/key and mem:<content>.
//
// The backend is wrapped so that its reads are monitored and, when
// configured, throttled.
func Open(ctx context.Context, uri string, o Options) (*Opened, error) {
	if o.MetricHandle == nil {
		o.MetricHandle = metrics.NewNoopMetrics()
	}
	if o.TraceHandle == nil {
		o.TraceHandle = tracing.NewNoopTracer()
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}

	backend, closeFn, err := openBackend(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	monitor := NewMonitoringResource(backend, o.MetricHandle, o.TraceHandle, o.Clock)
	var r Resource = monitor
	if o.ThrottleBytesPerSec > 0 {
		r = NewThrottledResource(monitor, o.ThrottleBytesPerSec)
	}

	length, known := r.Length()
	logger.Debugf("Opened %s resource %q, length %d (known: %t)", monitor.Kind(), uri, length, known)
	return &Opened{Resource: r, monitor: monitor, closeFn: closeFn}, nil
}

func openBackend(ctx context.Context, uri string, o Options) (Resource, func() error, error) {
	if content, ok := strings.CutPrefix(uri, "mem:"); ok {
		return NewMemoryResource([]byte(content)), nil, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %q: %w", uri, err)
	}

	switch u.Scheme {
	case "", "file":
		f, err := OpenFile(u.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil

	case "http", "https":
		r, err := NewChunkedResource(ctx, NewHTTPOpener(uri, o.HTTPTimeout), o.ChunkSize)
		return r, nil, err

	case "gs":
		bucket, object, err := bucketAndObject(u)
		if err != nil {
			return nil, nil, err
		}
		client, err := NewGCSClient(ctx, o.GCS)
		if err != nil {
			return nil, nil, err
		}
		r, err := NewChunkedResource(ctx, NewGCSOpener(client, bucket, object), o.ChunkSize)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return r, client.Close, nil

	case "s3":
		bucket, key, err := bucketAndObject(u)
		if err != nil {
			return nil, nil, err
		}
		client, err := NewS3Client(ctx, o.S3)
		if err != nil {
			return nil, nil, err
		}
		r, err := NewChunkedResource(ctx, NewS3Opener(client, bucket, key), o.ChunkSize)
		return r, nil, err
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

func bucketAndObject(u *url.URL) (string, string, error) {
	object := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("%s URI %q must name a bucket and an object", u.Scheme, u.String())
	}
	return u.Host, object, nil
}
