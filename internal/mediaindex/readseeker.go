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

package mediaindex

import (
	"context"
	"io"
	"math"
)

// ReadSeeker adapts an Index to io.Reader, io.ReaderAt and io.Seeker so it
// can be handed to code expecting the standard interfaces. It binds the
// context used for every resource call.
//
// Unlike Index, it reports the end of data with io.EOF, and io.SeekEnd
// offsets are added to the length as usual. It is not safe for concurrent
// use.
type ReadSeeker struct {
	ctx context.Context
	idx *Index
}

var (
	_ io.Reader   = (*ReadSeeker)(nil)
	_ io.ReaderAt = (*ReadSeeker)(nil)
	_ io.Seeker   = (*ReadSeeker)(nil)
)

func NewReadSeeker(ctx context.Context, idx *Index) *ReadSeeker {
	return &ReadSeeker{ctx: ctx, idx: idx}
}

func (rs *ReadSeeker) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := rs.idx.Read(rs.ctx, p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadAt keeps reading until p is full, as io.ReaderAt requires, and returns
// io.EOF when the resource runs out first.
func (rs *ReadSeeker) ReadAt(p []byte, off int64) (int, error) {
	total := 0
	for total < len(p) {
		n, err := rs.idx.ReadAt(rs.ctx, p[total:], off+int64(total))
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}
	return total, nil
}

func (rs *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekEnd {
		if offset == math.MinInt64 {
			return rs.idx.Tell(), ErrInvalidArgument
		}
		// Index measures io.SeekEnd offsets backwards from the end.
		return rs.idx.Seek(io.SeekEnd, -offset)
	}
	return rs.idx.Seek(whence, offset)
}
