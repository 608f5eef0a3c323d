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
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var httpContent = []byte("The quick brown fox jumps over the lazy dog")

// newContentServer serves httpContent with range support and counts GET
// requests.
func newContentServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		http.ServeContent(w, r, "clip.mp4", time.Unix(0, 0), bytes.NewReader(httpContent))
	}))
	t.Cleanup(server.Close)
	return server, &gets
}

func readAllRange(t *testing.T, o RangeOpener, off, n int64) string {
	t.Helper()
	rc, err := o.OpenRange(context.Background(), off, n)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestHTTPOpener_OpenRange(t *testing.T) {
	server, _ := newContentServer(t)
	o := NewHTTPOpener(server.URL, time.Second)

	assert.Equal(t, "quick", readAllRange(t, o, 4, 5))
	assert.Equal(t, "dog", readAllRange(t, o, 40, 10))
	assert.Empty(t, readAllRange(t, o, 100, 10))
}

func TestHTTPOpener_Size(t *testing.T) {
	server, _ := newContentServer(t)

	size, ok, err := NewHTTPOpener(server.URL, time.Second).Size(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, len(httpContent), size)
}

func TestHTTPOpener_SizeOfMissingObject(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	_, _, err := NewHTTPOpener(server.URL, time.Second).Size(context.Background())

	assert.ErrorContains(t, err, "404")
}

func TestHTTPOpener_ServerWithoutRangeSupport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(httpContent)
	}))
	t.Cleanup(server.Close)
	o := NewHTTPOpener(server.URL, time.Second)

	assert.Equal(t, "The", readAllRange(t, o, 0, 3))
	_, err := o.OpenRange(context.Background(), 4, 5)
	assert.ErrorContains(t, err, "does not support range requests")
}

func TestChunkedResource_OverHTTP(t *testing.T) {
	server, gets := newContentServer(t)
	r, err := NewChunkedResource(context.Background(), NewHTTPOpener(server.URL, time.Second), 16)
	require.NoError(t, err)
	var got []byte
	buf := make([]byte, 4)

	for off := int64(0); ; {
		n, err := r.ReadAt(context.Background(), buf, off)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
		off += int64(n)
	}

	assert.Equal(t, httpContent, got)
	// 43 bytes in chunks of 16.
	assert.EqualValues(t, 3, gets.Load())
}
