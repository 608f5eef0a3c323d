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

package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Index: IndexConfig{BlockSize: 32768},
		Logging: LoggingConfig{
			Format:   TextLogFormat,
			Severity: InfoLogSeverity,
			LogRotate: LogRotateLoggingConfig{
				MaxFileSizeMb:   512,
				BackupFileCount: 10,
			},
		},
		Read: ReadConfig{
			Length:      -1,
			ReadSize:    4096,
			Parallelism: 4,
		},
		Resource: ResourceConfig{
			ChunkSizeKb: 1024,
			HttpTimeout: 30 * time.Second,
		},
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	c := validConfig()

	assert.NoError(t, ValidateConfig(&c))
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative block size", func(c *Config) { c.Index.BlockSize = -1 }},
		{"block size too high", func(c *Config) { c.Index.BlockSize = 1 << 32 }},
		{"zero read size", func(c *Config) { c.Read.ReadSize = 0 }},
		{"zero parallelism", func(c *Config) { c.Read.Parallelism = 0 }},
		{"negative offset", func(c *Config) { c.Read.Offset = -5 }},
		{"length below -1", func(c *Config) { c.Read.Length = -2 }},
		{"negative chunk size", func(c *Config) { c.Resource.ChunkSizeKb = -1 }},
		{"chunk size too high", func(c *Config) { c.Resource.ChunkSizeKb = 1 << 30 }},
		{"negative throttle", func(c *Config) { c.Resource.ThrottleBytesPerSec = -1 }},
		{"bad endpoint", func(c *Config) { c.Resource.CustomEndpoint = "http://[::1" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero log file size", func(c *Config) { c.Logging.LogRotate.MaxFileSizeMb = 0 }},
		{"negative backup count", func(c *Config) { c.Logging.LogRotate.BackupFileCount = -1 }},
		{"bad prometheus port", func(c *Config) { c.Metrics.PrometheusPort = 70000 }},
		{"bad tracing mode", func(c *Config) { c.Monitoring.TracingMode = "gcptrace" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)

			assert.Error(t, ValidateConfig(&c))
		})
	}
}

func TestRationalize_DefaultsSeverity(t *testing.T) {
	c := validConfig()
	c.Logging.Severity = ""

	err := Rationalize(&c)

	if assert.NoError(t, err) {
		assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
	}
}
