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

package util

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	KiB = 1 << 10
	MiB = 1 << 20
)

const MaxKiBsInInt64 int64 = math.MaxInt64 >> 10

// GetResolvedPath returns an absolute form of filePath.
//  1. Absolute paths and the empty string are returned unchanged.
//  2. A path starting with ~/ is resolved against the home directory.
//  3. Any other relative path is resolved against the working directory.
func GetResolvedPath(filePath string) (resolvedPath string, err error) {
	if filePath == "" || filepath.IsAbs(filePath) {
		resolvedPath = filePath
		return
	}

	if strings.HasPrefix(filePath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("fetch home dir: %w", err)
		}
		return filepath.Join(homeDir, filePath[2:]), nil
	}

	return filepath.Abs(filePath)
}

// KiBsToBytes returns the bytes equivalent of the given number of KiBs.
// Negative and overflowing inputs panic.
func KiBsToBytes(kib int64) int64 {
	if kib < 0 || kib > MaxKiBsInInt64 {
		panic(fmt.Sprintf("KiBsToBytes: unsupported input %d", kib))
	}
	return kib << 10
}

// YAMLStringify marshals input into a YAML document.
func YAMLStringify(input any) (string, error) {
	inputBytes, err := yaml.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("error in YAMLStringify: %w", err)
	}
	return string(inputBytes), nil
}
