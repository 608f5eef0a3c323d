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
	"io"
	"sync"

	"github.com/googlecloudplatform/mediaindex/internal/logger"
	"github.com/googlecloudplatform/mediaindex/metrics"
)

// DefaultChunkSize is the read-ahead used when NewChunkedResource is given a
// non-positive chunk size.
const DefaultChunkSize = 1 << 20

// RangeOpener opens readers over byte ranges of a remote object.
type RangeOpener interface {
	// OpenRange returns a reader over [off, off+n). The reader may end early
	// when the object is shorter.
	OpenRange(ctx context.Context, off, n int64) (io.ReadCloser, error)

	// Size returns the object size, with ok set to false when the backend
	// cannot tell.
	Size(ctx context.Context) (size int64, ok bool, err error)

	Kind() metrics.MetricAttr
}

// ChunkedResource turns a RangeOpener into a Resource. Each miss fetches a
// whole chunk starting at the requested offset and keeps it, so that small
// sequential reads cost one request per chunk.
type ChunkedResource struct {
	opener      RangeOpener
	chunkSize   int
	length      int64
	lengthKnown bool

	// mu guards the fields below.
	mu          sync.Mutex
	chunk       []byte
	chunkOffset int64
	chunkBytes  int
}

// NewChunkedResource asks opener for the object size once and returns a
// resource reading it in chunks of chunkSize bytes.
func NewChunkedResource(ctx context.Context, opener RangeOpener, chunkSize int) (*ChunkedResource, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	size, ok, err := opener.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("size of %s object: %w", opener.Kind(), err)
	}
	return &ChunkedResource{
		opener:      opener,
		chunkSize:   chunkSize,
		length:      size,
		lengthKnown: ok,
	}, nil
}

func (c *ChunkedResource) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	if len(p) == 0 || (c.lengthKnown && off >= c.length) {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if off >= c.chunkOffset && off < c.chunkOffset+int64(c.chunkBytes) {
		return copy(p, c.chunk[off-c.chunkOffset:c.chunkBytes]), nil
	}

	if err := c.fetch(ctx, off, max(len(p), c.chunkSize)); err != nil {
		return 0, err
	}
	return copy(p, c.chunk[:c.chunkBytes]), nil
}

// fetch replaces the kept chunk with up to n bytes starting at off.
// LOCKS_REQUIRED(c.mu)
func (c *ChunkedResource) fetch(ctx context.Context, off int64, n int) error {
	if c.lengthKnown && int64(n) > c.length-off {
		n = int(c.length - off)
	}
	if cap(c.chunk) < n {
		c.chunk = make([]byte, n)
	}
	c.chunk = c.chunk[:n]
	c.chunkBytes = 0

	rc, err := c.opener.OpenRange(ctx, off, int64(n))
	if err != nil {
		return fmt.Errorf("open %s range [%d, %d): %w", c.opener.Kind(), off, off+int64(n), err)
	}
	defer rc.Close()

	read, err := io.ReadFull(rc, c.chunk)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read %s range [%d, %d): %w", c.opener.Kind(), off, off+int64(n), err)
	}
	logger.Tracef("fetched %s chunk [%d, %d), wanted %d bytes", c.opener.Kind(), off, off+int64(read), n)

	c.chunkOffset = off
	c.chunkBytes = read
	return nil
}

func (c *ChunkedResource) Length() (int64, bool) {
	if !c.lengthKnown {
		return -1, false
	}
	return c.length, true
}

func (c *ChunkedResource) CachedDataEnd(off int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := c.chunkOffset + int64(c.chunkBytes)
	if off >= c.chunkOffset && off < end {
		return end
	}
	return off
}

func (c *ChunkedResource) Kind() metrics.MetricAttr {
	return c.opener.Kind()
}
