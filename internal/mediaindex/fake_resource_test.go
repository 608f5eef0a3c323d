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
)

// readCall records one ReadAt made on a fakeResource.
type readCall struct {
	off int64
	n   int
}

// scriptedRead overrides the default behaviour of one fakeResource.ReadAt
// call. A nil entry uses the default.
type scriptedRead func(p []byte, off int64) (int, error)

// fakeResource serves data from memory and records every read.
type fakeResource struct {
	data        []byte
	length      int64
	lengthKnown bool
	// maxRead caps the bytes returned per call when positive.
	maxRead int
	// cachedEnd answers CachedDataEnd; nil reports nothing cached.
	cachedEnd func(off int64) int64
	script    []scriptedRead
	calls     []readCall
}

func newFakeResource(size int) *fakeResource {
	return &fakeResource{
		data:        testData(size),
		length:      int64(size),
		lengthKnown: true,
	}
}

// allCached makes the resource report all of its data as cached.
func (f *fakeResource) allCached() *fakeResource {
	f.cachedEnd = func(off int64) int64 {
		return max(off, int64(len(f.data)))
	}
	return f
}

func (f *fakeResource) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	f.calls = append(f.calls, readCall{off: off, n: len(p)})
	if len(f.script) > 0 {
		s := f.script[0]
		f.script = f.script[1:]
		if s != nil {
			return s(p, off)
		}
	}
	if off >= int64(len(f.data)) {
		return 0, nil
	}
	if f.maxRead > 0 && len(p) > f.maxRead {
		p = p[:f.maxRead]
	}
	return copy(p, f.data[off:]), nil
}

func (f *fakeResource) Length() (int64, bool) {
	if !f.lengthKnown {
		return -1, false
	}
	return f.length, true
}

func (f *fakeResource) CachedDataEnd(off int64) int64 {
	if f.cachedEnd == nil {
		return off
	}
	return f.cachedEnd(off)
}

func (f *fakeResource) resetCalls() {
	f.calls = nil
}

func testData(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func failWith(err error) scriptedRead {
	return func([]byte, int64) (int, error) {
		return 0, err
	}
}
