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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// HTTPOpener reads byte ranges of a URL with Range requests.
type HTTPOpener struct {
	client *http.Client
	url    string
}

// NewHTTPOpener returns an opener for url. Each request is bounded by
// timeout when it is positive.
func NewHTTPOpener(url string, timeout time.Duration) *HTTPOpener {
	return &HTTPOpener{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (h *HTTPOpener) OpenRange(ctx context.Context, off, n int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+n-1))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusOK:
		// The server ignored the range; only usable from the start.
		if off == 0 {
			return readCloser{io.LimitReader(resp.Body, n), resp.Body}, nil
		}
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: server does not support range requests", h.url)
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return io.NopCloser(strings.NewReader("")), nil
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", h.url, resp.Status)
	}
}

// Size issues a HEAD request. A missing Content-Length leaves the size
// unknown.
func (h *HTTPOpener) Size(ctx context.Context) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url, nil)
	if err != nil {
		return 0, false, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, false, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("HEAD %s: unexpected status %s", h.url, resp.Status)
	}
	if resp.ContentLength < 0 {
		return -1, false, nil
	}
	return resp.ContentLength, true, nil
}

func (h *HTTPOpener) Kind() metrics.MetricAttr {
	return metrics.ResourceKindHTTPAttr
}

type readCloser struct {
	io.Reader
	io.Closer
}
