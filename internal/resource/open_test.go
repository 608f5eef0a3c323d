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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

func readFullyAt(t *testing.T, r Resource, off int64, size int) string {
	t.Helper()
	buf := make([]byte, size)
	got := 0
	for got < size {
		n, err := r.ReadAt(context.Background(), buf[got:], off+int64(got))
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got += n
	}
	return string(buf[:got])
}

func TestOpen_Memory(t *testing.T) {
	r, err := Open(context.Background(), "mem:hello world", Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "world", readFullyAt(t, r, 6, 5))
	assert.Equal(t, metrics.ResourceKindMemoryAttr, r.Kind())
	calls, bytes := r.Stats()
	assert.EqualValues(t, 1, calls)
	assert.EqualValues(t, 5, bytes)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	for _, uri := range []string{path, "file://" + path} {
		r, err := Open(context.Background(), uri, Options{})
		require.NoError(t, err)

		assert.Equal(t, "345", readFullyAt(t, r, 3, 3))
		assert.Equal(t, metrics.ResourceKindFileAttr, r.Kind())
		assert.NoError(t, r.Close())
	}
}

func TestOpen_HTTP(t *testing.T) {
	server, gets := newContentServer(t)
	r, err := Open(context.Background(), server.URL+"/clip.mp4", Options{ChunkSize: 1024, HTTPTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "quick", readFullyAt(t, r, 4, 5))
	assert.Equal(t, "fox", readFullyAt(t, r, 16, 3))
	assert.Equal(t, metrics.ResourceKindHTTPAttr, r.Kind())
	assert.EqualValues(t, 1, gets.Load())
}

func TestOpen_S3(t *testing.T) {
	server := newS3Server(t, "media", "clip.mp4", httpContent)
	r, err := Open(context.Background(), "s3://media/clip.mp4", Options{
		S3: S3ClientConfig{
			Region:          "us-east-1",
			CustomEndpoint:  server.URL,
			AccessKeyID:     "test-access-key",
			SecretAccessKey: "test-secret-key",
		},
	})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "jumps", readFullyAt(t, r, 20, 5))
}

func TestOpen_Throttled(t *testing.T) {
	r, err := Open(context.Background(), "mem:0123456789", Options{ThrottleBytesPerSec: 4})
	require.NoError(t, err)
	defer r.Close()

	n, err := r.ReadAt(context.Background(), make([]byte, 10), 0)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestOpen_Errors(t *testing.T) {
	testCases := []struct {
		name string
		uri  string
	}{
		{name: "unsupported_scheme", uri: "ftp://host/clip.mp4"},
		{name: "gs_without_object", uri: "gs://bucket"},
		{name: "s3_without_bucket", uri: "s3:///key"},
		{name: "missing_file", uri: filepath.Join(t.TempDir(), "missing")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(context.Background(), tc.uri, Options{})

			assert.Error(t, err)
		})
	}
}

func TestOpen_UnsupportedSchemeIsTyped(t *testing.T) {
	_, err := Open(context.Background(), "ftp://host/clip.mp4", Options{})

	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
