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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

// newS3Server mimics path-style GetObject and HeadObject for a single key.
func newS3Server(t *testing.T, bucket, key string, content []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+bucket+"/"+key {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.ServeContent(w, r, key, time.Unix(0, 0), bytes.NewReader(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestS3Opener(t *testing.T, key string) *S3Opener {
	t.Helper()
	server := newS3Server(t, "media", "clip.mp4", httpContent)
	client, err := NewS3Client(context.Background(), S3ClientConfig{
		Region:          "us-east-1",
		CustomEndpoint:  server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)
	return NewS3Opener(client, "media", key)
}

func TestS3Opener_Size(t *testing.T) {
	o := newTestS3Opener(t, "clip.mp4")

	size, ok, err := o.Size(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, len(httpContent), size)
	assert.Equal(t, metrics.ResourceKindS3Attr, o.Kind())
}

func TestS3Opener_SizeOfMissingObject(t *testing.T) {
	o := newTestS3Opener(t, "missing.mp4")

	_, _, err := o.Size(context.Background())

	assert.Error(t, err)
}

func TestS3Opener_OpenRange(t *testing.T) {
	o := newTestS3Opener(t, "clip.mp4")

	assert.Equal(t, "brown", readAllRange(t, o, 10, 5))
}

func TestChunkedResource_OverS3(t *testing.T) {
	r, err := NewChunkedResource(context.Background(), newTestS3Opener(t, "clip.mp4"), 64)
	require.NoError(t, err)
	buf := make([]byte, 8)

	n, err := r.ReadAt(context.Background(), buf, 35)

	require.NoError(t, err)
	assert.Equal(t, "lazy dog", string(buf[:n]))
}
