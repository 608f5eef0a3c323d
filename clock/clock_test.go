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

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFakeClock(start)

	fc.AdvanceTime(3 * time.Second)

	assert.Equal(t, start.Add(3*time.Second), fc.Now())
	assert.Equal(t, 3*time.Second, fc.Since(start))
}

func TestRealClock_SinceIsNonNegative(t *testing.T) {
	var c Clock = RealClock{}

	start := c.Now()

	assert.GreaterOrEqual(t, c.Since(start), time.Duration(0))
}
