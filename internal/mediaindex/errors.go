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

import "errors"

var (
	// ErrInvalidArgument is returned for a negative offset, an offset range
	// that overflows int64, or a seek to a negative position.
	ErrInvalidArgument = errors.New("mediaindex: invalid argument")

	// ErrOverflow is returned when the read offset wraps around while a
	// multi-step read is in progress.
	ErrOverflow = errors.New("mediaindex: offset overflow")

	// ErrFailure is returned for operations that cannot be carried out with
	// the state of the resource, such as an unsupported seek origin.
	ErrFailure = errors.New("mediaindex: operation failed")

	// ErrUnknownLength is returned when seeking relative to the end of a
	// resource whose length is unknown. It matches ErrFailure.
	ErrUnknownLength = &unknownLengthError{}
)

type unknownLengthError struct{}

func (*unknownLengthError) Error() string {
	return "mediaindex: resource length is unknown"
}

func (*unknownLengthError) Unwrap() error {
	return ErrFailure
}
