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
	"errors"
	"fmt"
	"math"
)

const (
	BlockSizeInvalidValueError   = "the value of block-size can't be negative"
	BlockSizeTooHighError        = "the value of block-size is too high. Max is 2147483647"
	ReadSizeInvalidValueError    = "the value of read-size must be at least 1"
	ParallelismInvalidValueError = "the value of parallelism must be at least 1"
	OffsetInvalidValueError      = "the value of offset can't be negative"
	LengthInvalidValueError      = "the value of length can't be less than -1"
	ChunkSizeInvalidValueError   = "the value of chunk-size-kb can't be negative"
	ChunkSizeTooHighError        = "the value of chunk-size-kb is too high. Max is 2097151"
	ThrottleInvalidValueError    = "the value of throttle-bytes-per-sec can't be negative"
	PrometheusPortInvalidError   = "the value of prometheus-port must be in [0, 65535]"
)

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return errors.New("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return errors.New("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidLoggingConfig(config *LoggingConfig) error {
	if config.Format != TextLogFormat && config.Format != JSONLogFormat {
		return fmt.Errorf("invalid log format: %q. Must be one of [text, json]", config.Format)
	}
	if config.Severity != "" && config.Severity.Rank() < 0 {
		return fmt.Errorf("invalid log severity: %q", config.Severity)
	}
	return isValidLogRotateConfig(&config.LogRotate)
}

func isValidIndexConfig(config *IndexConfig) error {
	if config.BlockSize < 0 {
		return errors.New(BlockSizeInvalidValueError)
	}
	if config.BlockSize > math.MaxInt32 {
		return errors.New(BlockSizeTooHighError)
	}
	return nil
}

func isValidReadConfig(config *ReadConfig) error {
	if config.ReadSize < 1 {
		return errors.New(ReadSizeInvalidValueError)
	}
	if config.Parallelism < 1 {
		return errors.New(ParallelismInvalidValueError)
	}
	if config.Offset < 0 {
		return errors.New(OffsetInvalidValueError)
	}
	if config.Length < -1 {
		return errors.New(LengthInvalidValueError)
	}
	return nil
}

func isValidResourceConfig(config *ResourceConfig) error {
	if config.ChunkSizeKb < 0 {
		return errors.New(ChunkSizeInvalidValueError)
	}
	if config.ChunkSizeKb > math.MaxInt32>>10 {
		return errors.New(ChunkSizeTooHighError)
	}
	if config.ThrottleBytesPerSec < 0 {
		return errors.New(ThrottleInvalidValueError)
	}
	if _, err := decodeURL(config.CustomEndpoint); err != nil {
		return fmt.Errorf("error parsing custom-endpoint config: %w", err)
	}
	return nil
}

func isValidMonitoringConfig(config *MonitoringConfig) error {
	switch config.TracingMode {
	case TracingModeDisabled, TracingModeStdout:
		return nil
	default:
		return fmt.Errorf("unsupported tracing-mode: %q", config.TracingMode)
	}
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidIndexConfig(&config.Index); err != nil {
		return fmt.Errorf("error parsing index config: %w", err)
	}

	if err = isValidReadConfig(&config.Read); err != nil {
		return fmt.Errorf("error parsing read config: %w", err)
	}

	if err = isValidResourceConfig(&config.Resource); err != nil {
		return fmt.Errorf("error parsing resource config: %w", err)
	}

	if err = isValidLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}

	if config.Metrics.PrometheusPort < 0 || config.Metrics.PrometheusPort > math.MaxUint16 {
		return fmt.Errorf("error parsing metrics config: %s", PrometheusPortInvalidError)
	}

	if err = isValidMonitoringConfig(&config.Monitoring); err != nil {
		return fmt.Errorf("error parsing monitoring config: %w", err)
	}

	return nil
}
