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

// Package mediaindex implements offset-addressed reads over a resource
// with a single lookahead block, keeping the number of calls made on the
// resource low for forward-biased access patterns.
package mediaindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/googlecloudplatform/mediaindex/internal/logger"
	"github.com/googlecloudplatform/mediaindex/internal/resource"
	"github.com/googlecloudplatform/mediaindex/metrics"
)

const (
	MinBlockSize = 32
	MaxBlockSize = 32768
)

// Index reads from a resource through a single cache block and keeps a
// cursor for sequential reads.
//
// An Index is not safe for concurrent use: Read, ReadAt and Seek must be
// serialized by the caller.
type Index struct {
	id string
	r  resource.Resource

	// The bytes for absolute offset o live at block[o%blockSize]. The valid
	// run [cachedOffset, cachedOffset+cachedBytes) never crosses a block
	// boundary.
	blockSize    int
	block        []byte
	cachedOffset int64
	cachedBytes  int

	// Cursor used by Read and Seek. Never negative.
	offset int64

	metricHandle metrics.MetricHandle
}

type Option func(*Index)

// WithMetricHandle makes the index report served bytes and cache fills. A nil
// handle keeps the noop one.
func WithMetricHandle(mh metrics.MetricHandle) Option {
	return func(idx *Index) {
		if mh != nil {
			idx.metricHandle = mh
		}
	}
}

// New returns an index over r with the given cache block size. A block size
// of zero (or less) disables caching so every read goes to the resource.
func New(r resource.Resource, blockSize int, opts ...Option) *Index {
	if blockSize < 0 {
		blockSize = 0
	}
	idx := &Index{
		id:           uuid.NewString(),
		r:            r,
		blockSize:    blockSize,
		block:        make([]byte, blockSize),
		metricHandle: metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// SelectBlockSize turns a block size hint into a usable one: zero stays zero,
// anything else is rounded up to a power of two within
// [MinBlockSize, MaxBlockSize].
func SelectBlockSize(hint int) int {
	switch {
	case hint <= 0:
		return 0
	case hint <= MinBlockSize:
		return MinBlockSize
	case hint > MaxBlockSize:
		return MaxBlockSize
	}
	size := MinBlockSize
	for size < hint {
		size <<= 1
	}
	return size
}

// ID identifies the index in log events.
func (idx *Index) ID() string { return idx.id }

// BlockSize returns the cache block size; zero means caching is disabled.
func (idx *Index) BlockSize() int { return idx.blockSize }

// Tell returns the cursor position.
func (idx *Index) Tell() int64 { return idx.offset }

// Length returns the resource length and whether it is known.
func (idx *Index) Length() (int64, bool) { return idx.r.Length() }

// CachedRange returns the range held in the cache block. n is zero when the
// block is empty.
func (idx *Index) CachedRange() (off int64, n int) {
	return idx.cachedOffset, idx.cachedBytes
}

// Read reads from the cursor position and advances the cursor by the number
// of bytes returned. The cursor does not move when an error is returned.
//
// The resource length is not checked as it may change over time.
func (idx *Index) Read(ctx context.Context, p []byte) (int, error) {
	n, err := idx.ReadAt(ctx, p, idx.offset)
	if err != nil {
		return n, err
	}
	idx.offset += int64(n)
	if idx.offset < 0 {
		idx.offset = 0
	}
	return n, nil
}

// ReadAt reads len(p) bytes starting at off, serving what it can from the
// cache block. It issues at most two resource reads of its own: one for the
// bytes before the block holding the last requested byte, and one routed
// through the cache for that final block.
//
// A short count with a nil error is not a failure: it means the resource had
// no more data. On error, the count is the number of bytes delivered before
// the failing sub-read.
func (idx *Index) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	count := len(p)
	end := off + int64(count)
	if off < 0 || end < off {
		return 0, ErrInvalidArgument
	}
	if count == 0 {
		return 0, nil
	}
	if idx.blockSize == 0 {
		n, err := idx.uncachedReadAt(ctx, p, off)
		if err == nil {
			idx.metricHandle.IndexReadBytesCount(int64(n), metrics.ReadSourceResourceAttr)
		}
		return n, err
	}

	reqCount, reqOffset := count, off
	lastBlockOffset := idx.cacheOffsetContaining(end - 1)
	total := 0

	if idx.cachedBytes != 0 && idx.cachedOffset+int64(idx.cachedBytes) >= off && idx.cachedOffset < end {
		// The cache overlaps the request, possibly only at its end.
		if off < idx.cachedOffset {
			toRead := int(idx.cachedOffset - off)
			n, err := idx.uncachedReadAt(ctx, p[:toRead], off)
			if err != nil {
				idx.trace(reqCount, reqOffset, "uncached read before cache failed", "err", err)
				return 0, err
			}
			total = n
			idx.metricHandle.IndexReadBytesCount(int64(n), metrics.ReadSourceResourceAttr)
			if n < toRead {
				idx.trace(reqCount, reqOffset, "uncached read before cache incomplete", "bytes", total)
				return total, nil
			}
			off += int64(n)
			p = p[n:]
		}

		// Zero when off sits right at the end of the cached run; the top-up
		// below then extends it.
		toCopy := min(len(p), int(idx.cachedOffset+int64(idx.cachedBytes)-off))
		if toCopy != 0 {
			copy(p[:toCopy], idx.block[idx.indexInCache(off):])
			total += toCopy
			idx.metricHandle.IndexReadBytesCount(int64(toCopy), metrics.ReadSourceCacheAttr)
			if toCopy == len(p) {
				idx.trace(reqCount, reqOffset, "copied everything from cache",
					"cache", idx.cachedSpan(), "bytes", total)
				return total, nil
			}
			off += int64(toCopy)
			p = p[toCopy:]
			idx.trace(reqCount, reqOffset, "copied from cache",
				"cache", idx.cachedSpan(), "copied", toCopy, "remaining", byteRange{len(p), off})
		}

		if off-1 >= lastBlockOffset {
			// Already reading from the last block: top it up.
			n, err := idx.cacheOrReadAt(ctx, p, off, reqCount, reqOffset)
			return total + n, err
		}
		// More to read before the last block.
	} else if off >= lastBlockOffset {
		// Nothing usable in the cache and the request fits in the last block.
		idx.cachedBytes = 0
		n, err := idx.cacheOrReadAt(ctx, p, off, reqCount, reqOffset)
		return total + n, err
	}

	if off < lastBlockOffset {
		toRead := int(lastBlockOffset - off)
		n, err := idx.uncachedReadAt(ctx, p[:toRead], off)
		if err != nil {
			idx.trace(reqCount, reqOffset, "uncached read before last block failed", "err", err, "bytes", total)
			return total, err
		}
		if n == 0 {
			idx.trace(reqCount, reqOffset, "uncached read before last block got nothing", "bytes", total)
			return total, nil
		}
		total += n
		idx.metricHandle.IndexReadBytesCount(int64(n), metrics.ReadSourceResourceAttr)
		if n < toRead {
			idx.trace(reqCount, reqOffset, "uncached read before last block incomplete", "bytes", total)
			return total, nil
		}
		idx.trace(reqCount, reqOffset, "read before last block",
			"bytes", n, "remaining", byteRange{len(p) - n, off + int64(n)})
		off += int64(n)
		p = p[n:]
	}

	// At the start of the last block.
	idx.cachedBytes = 0
	n, err := idx.cacheOrReadAt(ctx, p, off, reqCount, reqOffset)
	return total + n, err
}

// cacheOrReadAt reads p at off, where [off, off+len(p)) lies within a single
// block. When the resource reports the data as already available, the rest
// of the block is filled with the same call; otherwise, or if that fails, p
// is read exactly without touching the cache.
func (idx *Index) cacheOrReadAt(ctx context.Context, p []byte, off int64, reqCount int, reqOffset int64) (int, error) {
	count := len(p)
	length, known := idx.r.Length()

	// A known length shorter than the request falls back to a plain read; the
	// resource may still have grown.
	if !known || length >= off+int64(count) {
		cachedDataEnd := idx.r.CachedDataEnd(off)
		if cachedDataEnd >= off+int64(count) {
			cacheIndex := idx.indexInCache(off)
			toRead := int(min(cachedDataEnd-off, int64(idx.blockSize-cacheIndex)))
			topUp := idx.cachedBytes != 0 && idx.cachedOffset+int64(idx.cachedBytes) == off
			n, err := idx.uncachedRangedReadAt(ctx, idx.block[cacheIndex:cacheIndex+toRead], off, count)
			if err == nil {
				if n == 0 {
					idx.trace(reqCount, reqOffset, "ranged read to fill cache got nothing",
						"range", byteRange{toRead, off})
					idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeSkippedAttr)
					return 0, nil
				}
				if topUp {
					idx.cachedBytes += n
					idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeTopUpAttr)
				} else {
					idx.cachedOffset = off
					idx.cachedBytes = n
					idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeFreshAttr)
				}
				toCopy := min(count, n)
				copy(p[:toCopy], idx.block[cacheIndex:cacheIndex+toCopy])
				idx.metricHandle.IndexReadBytesCount(int64(toCopy), metrics.ReadSourceResourceAttr)
				idx.trace(reqCount, reqOffset, "filled cache",
					"top_up", topUp, "read", n, "copied", toCopy, "cache", idx.cachedSpan())
				return toCopy, nil
			}
			idx.trace(reqCount, reqOffset, "ranged read to fill cache failed, falling back to plain read",
				"range", byteRange{toRead, off}, "err", err)
			idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeFailedAttr)
			// The failed read may have overwritten part of the block past the
			// valid run. A top-up leaves the old run intact; a fresh fill does
			// not.
			if !topUp {
				idx.cachedBytes = 0
			}
		} else {
			idx.trace(reqCount, reqOffset, "no resource-cached data, falling back to plain read")
			idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeSkippedAttr)
		}
	} else {
		idx.trace(reqCount, reqOffset, "length too short, falling back to plain read", "length", length)
		idx.metricHandle.IndexCacheFillCount(1, metrics.FillTypeSkippedAttr)
	}

	n, err := idx.uncachedReadAt(ctx, p, off)
	if err != nil {
		idx.trace(reqCount, reqOffset, "fallback read failed", "err", err)
		return 0, err
	}
	idx.metricHandle.IndexReadBytesCount(int64(n), metrics.ReadSourceResourceAttr)
	idx.trace(reqCount, reqOffset, "fallback read", "bytes", n)
	return n, nil
}

// uncachedReadAt reads from the resource until p is full or the resource
// returns no data.
func (idx *Index) uncachedReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidArgument
	}
	total := 0
	for len(p) > 0 {
		n, err := idx.r.ReadAt(ctx, p, off)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
		p = p[n:]
		if len(p) == 0 {
			break
		}
		off += int64(n)
		if off < 0 {
			return total, ErrOverflow
		}
	}
	return total, nil
}

// uncachedRangedReadAt reads up to len(p) bytes but stops as soon as at least
// required bytes have been read.
func (idx *Index) uncachedRangedReadAt(ctx context.Context, p []byte, off int64, required int) (int, error) {
	if off < 0 || required > len(p) {
		return 0, ErrInvalidArgument
	}
	extra := len(p) - required
	total := 0
	for len(p) > 0 {
		n, err := idx.r.ReadAt(ctx, p, off)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
		p = p[n:]
		if len(p) <= extra {
			break
		}
		off += int64(n)
		if off < 0 {
			return total, ErrOverflow
		}
	}
	return total, nil
}

// Seek sets the cursor. With io.SeekEnd the new position is length-off, so a
// positive off moves back from the end. The cache is left untouched.
func (idx *Index) Seek(whence int, off int64) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		off += idx.offset
	case io.SeekEnd:
		length, known := idx.r.Length()
		if !known {
			return idx.offset, ErrUnknownLength
		}
		if length-off < 0 {
			return idx.offset, ErrFailure
		}
		off = length - off
	default:
		return idx.offset, fmt.Errorf("%w: whence %d", ErrFailure, whence)
	}

	if off < 0 {
		return idx.offset, ErrInvalidArgument
	}
	idx.offset = off
	return off, nil
}

func (idx *Index) cacheOffsetContaining(off int64) int64 {
	return off - off%int64(idx.blockSize)
}

func (idx *Index) indexInCache(off int64) int {
	return int(off % int64(idx.blockSize))
}

func (idx *Index) cachedSpan() byteRange {
	return byteRange{idx.cachedBytes, idx.cachedOffset}
}

// byteRange is logged as count@offset. Formatting happens only when the
// event is written.
type byteRange struct {
	count int
	off   int64
}

func (r byteRange) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%d@%d", r.count, r.off))
}

func (idx *Index) trace(reqCount int, reqOffset int64, msg string, args ...any) {
	if !logger.TraceEnabled() {
		return
	}
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs, "index", idx.id, "req", byteRange{reqCount, reqOffset})
	logger.Trace("ReadAt: "+msg, append(attrs, args...)...)
}
