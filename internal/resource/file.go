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
	"os"

	"github.com/googlecloudplatform/mediaindex/metrics"
)

var errNegativeOffset = errors.New("negative offset")

// FileResource reads from a local file. Local data is always available, so
// CachedDataEnd reports the size the file had when it was opened.
type FileResource struct {
	f    *os.File
	size int64
}

// OpenFile opens the file at path for reading.
func OpenFile(path string) (*FileResource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%q is a directory", path)
	}
	return &FileResource{f: f, size: fi.Size()}, nil
}

// ReadAt reads from the file at off. Hitting the end of the file is reported
// as a short read rather than io.EOF.
func (r *FileResource) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	n, err := r.f.ReadAt(p, off)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (r *FileResource) Length() (int64, bool) {
	return r.size, true
}

func (r *FileResource) CachedDataEnd(off int64) int64 {
	if off >= r.size {
		return off
	}
	return r.size
}

func (r *FileResource) Kind() metrics.MetricAttr {
	return metrics.ResourceKindFileAttr
}

func (r *FileResource) Close() error {
	return r.f.Close()
}
