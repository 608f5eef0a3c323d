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
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/api/googleapi"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

const (
	testBucketName  = "media-bucket"
	testObjectName  = "videos/clip.webm"
	testObjectValue = "0123456789abcdefghijklmnopqrstuvwxyz"
)

type GCSOpenerTest struct {
	suite.Suite
	ctx        context.Context
	fakeServer *fakestorage.Server
	opener     *GCSOpener
}

func TestGCSOpenerTestSuite(t *testing.T) {
	suite.Run(t, new(GCSOpenerTest))
}

func (t *GCSOpenerTest) SetupTest() {
	t.ctx = context.Background()
	var err error
	t.fakeServer, err = fakestorage.NewServerWithOptions(fakestorage.Options{
		InitialObjects: []fakestorage.Object{
			{
				ObjectAttrs: fakestorage.ObjectAttrs{
					BucketName: testBucketName,
					Name:       testObjectName,
				},
				Content: []byte(testObjectValue),
			},
		},
		NoListener: true,
	})
	t.Require().NoError(err)
	t.opener = NewGCSOpener(t.fakeServer.Client(), testBucketName, testObjectName)
}

func (t *GCSOpenerTest) TearDownTest() {
	t.fakeServer.Stop()
}

func (t *GCSOpenerTest) TestSize() {
	size, ok, err := t.opener.Size(t.ctx)

	t.Require().NoError(err)
	t.True(ok)
	t.EqualValues(len(testObjectValue), size)
}

func (t *GCSOpenerTest) TestSizeOfMissingObject() {
	opener := NewGCSOpener(t.fakeServer.Client(), testBucketName, "missing")

	_, _, err := opener.Size(t.ctx)

	t.ErrorIs(err, storage.ErrObjectNotExist)
}

func (t *GCSOpenerTest) TestOpenRange() {
	t.Equal("abcde", readAllRange(t.T(), t.opener, 10, 5))
}

func (t *GCSOpenerTest) TestChunkedReads() {
	r, err := NewChunkedResource(t.ctx, t.opener, 8)
	t.Require().NoError(err)
	buf := make([]byte, 6)

	n, err := r.ReadAt(t.ctx, buf, 30)

	t.Require().NoError(err)
	t.Equal("uvwxyz", string(buf[:n]))
	t.EqualValues(len(testObjectValue), r.CachedDataEnd(31))
	t.Equal(metrics.ResourceKindGCSAttr, KindOf(r))
}

func TestShouldRetry(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "unauthorized", err: &googleapi.Error{Code: http.StatusUnauthorized}, expected: true},
		{name: "service_unavailable", err: &googleapi.Error{Code: http.StatusServiceUnavailable}, expected: true},
		{name: "not_found", err: &googleapi.Error{Code: http.StatusNotFound}, expected: false},
		{name: "plain", err: errors.New("boom"), expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, shouldRetry(tc.err))
		})
	}
}

func TestNewGCSClient_CustomEndpoint(t *testing.T) {
	client, err := NewGCSClient(context.Background(), GCSClientConfig{
		CustomEndpoint:  "http://localhost:9000/storage/v1/",
		AnonymousAccess: true,
	})

	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
