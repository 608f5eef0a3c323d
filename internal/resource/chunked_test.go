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
	"errors"
	"io"
	"testing"

	"github.com/googlecloudplatform/mediaindex/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type openCall struct {
	off, n int64
}

// fakeOpener serves ranges of data and records every OpenRange call.
type fakeOpener struct {
	data      []byte
	sizeKnown bool
	sizeErr   error
	openErr   error
	calls     []openCall
}

func (f *fakeOpener) OpenRange(_ context.Context, off, n int64) (io.ReadCloser, error) {
	f.calls = append(f.calls, openCall{off, n})
	if f.openErr != nil {
		return nil, f.openErr
	}
	if off >= int64(len(f.data)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := min(off+n, int64(len(f.data)))
	return io.NopCloser(bytes.NewReader(f.data[off:end])), nil
}

func (f *fakeOpener) Size(context.Context) (int64, bool, error) {
	if f.sizeErr != nil {
		return 0, false, f.sizeErr
	}
	if !f.sizeKnown {
		return -1, false, nil
	}
	return int64(len(f.data)), true, nil
}

func (f *fakeOpener) Kind() metrics.MetricAttr {
	return metrics.ResourceKindHTTPAttr
}

type ChunkedResourceTest struct {
	suite.Suite
	ctx    context.Context
	opener *fakeOpener
	r      *ChunkedResource
}

func TestChunkedResourceTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedResourceTest))
}

func (t *ChunkedResourceTest) SetupTest() {
	t.ctx = context.Background()
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	t.opener = &fakeOpener{data: data, sizeKnown: true}
	var err error
	t.r, err = NewChunkedResource(t.ctx, t.opener, 256)
	t.Require().NoError(err)
}

func (t *ChunkedResourceTest) read(off int64, size int) []byte {
	buf := make([]byte, size)
	n, err := t.r.ReadAt(t.ctx, buf, off)
	t.Require().NoError(err)
	return buf[:n]
}

func (t *ChunkedResourceTest) TestSequentialReadsShareChunk() {
	for off := int64(0); off < 256; off += 64 {
		t.Equal(t.opener.data[off:off+64], t.read(off, 64))
	}

	t.Equal([]openCall{{0, 256}}, t.opener.calls)
	t.EqualValues(256, t.r.CachedDataEnd(100))
	t.EqualValues(300, t.r.CachedDataEnd(300))
}

func (t *ChunkedResourceTest) TestReadSpanningChunkEndIsShort() {
	t.read(0, 10)

	got := t.read(250, 20)

	t.Equal(t.opener.data[250:256], got)
	t.Len(t.opener.calls, 1)
}

func (t *ChunkedResourceTest) TestMissFetchesNewChunk() {
	t.read(0, 10)

	got := t.read(600, 10)

	t.Equal(t.opener.data[600:610], got)
	t.Equal([]openCall{{0, 256}, {600, 256}}, t.opener.calls)
}

func (t *ChunkedResourceTest) TestLargeReadFetchesWholeRequest() {
	got := t.read(0, 600)

	t.Equal(t.opener.data[:600], got)
	t.Equal([]openCall{{0, 600}}, t.opener.calls)
}

func (t *ChunkedResourceTest) TestFetchIsClampedToKnownLength() {
	got := t.read(900, 50)

	t.Equal(t.opener.data[900:950], got)
	t.Equal([]openCall{{900, 100}}, t.opener.calls)
	t.EqualValues(1000, t.r.CachedDataEnd(900))
}

func (t *ChunkedResourceTest) TestReadAtKnownEndMakesNoRequest() {
	t.Empty(t.read(1000, 10))
	t.Empty(t.opener.calls)
}

func (t *ChunkedResourceTest) TestUnknownLengthReadsToEnd() {
	t.opener.sizeKnown = false
	r, err := NewChunkedResource(t.ctx, t.opener, 256)
	t.Require().NoError(err)
	_, ok := r.Length()
	t.False(ok)
	buf := make([]byte, 50)

	n, err := r.ReadAt(t.ctx, buf, 980)
	t.Require().NoError(err)
	t.Equal(20, n)
	n, err = r.ReadAt(t.ctx, buf, 1000)

	t.Require().NoError(err)
	t.Zero(n)
	t.Equal([]openCall{{980, 256}, {1000, 256}}, t.opener.calls)
}

func (t *ChunkedResourceTest) TestOpenErrorDropsChunk() {
	t.read(0, 10)
	t.opener.openErr = errors.New("connection reset")
	buf := make([]byte, 10)

	_, err := t.r.ReadAt(t.ctx, buf, 500)

	t.ErrorIs(err, t.opener.openErr)
	t.EqualValues(5, t.r.CachedDataEnd(5))
}

func TestNewChunkedResource_SizeError(t *testing.T) {
	opener := &fakeOpener{sizeErr: errors.New("forbidden")}

	_, err := NewChunkedResource(context.Background(), opener, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, opener.sizeErr)
}

func TestNewChunkedResource_DefaultChunkSize(t *testing.T) {
	r, err := NewChunkedResource(context.Background(), &fakeOpener{sizeKnown: true}, 0)

	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, r.chunkSize)
}
