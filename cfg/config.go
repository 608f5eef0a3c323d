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
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Index IndexConfig `yaml:"index"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Monitoring MonitoringConfig `yaml:"monitoring"`

	Read ReadConfig `yaml:"read"`

	Resource ResourceConfig `yaml:"resource"`
}

type IndexConfig struct {
	BlockSize int64 `yaml:"block-size"`

	SelectBlockSize bool `yaml:"select-block-size"`
}

type LogRotateLoggingConfig struct {
	BackupFileCount int64 `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`

	MaxFileSizeMb int64 `yaml:"max-file-size-mb"`
}

type LoggingConfig struct {
	FilePath ResolvedPath `yaml:"file-path"`

	Format string `yaml:"format"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`

	Severity LogSeverity `yaml:"severity"`
}

type MetricsConfig struct {
	PrometheusPort int64 `yaml:"prometheus-port"`
}

type MonitoringConfig struct {
	TracingMode string `yaml:"tracing-mode"`
}

type ReadConfig struct {
	Discard bool `yaml:"discard"`

	FromEnd bool `yaml:"from-end"`

	Length int64 `yaml:"length"`

	Offset int64 `yaml:"offset"`

	Parallelism int64 `yaml:"parallelism"`

	ReadSize int64 `yaml:"read-size"`
}

type ResourceConfig struct {
	AnonymousAccess bool `yaml:"anonymous-access"`

	ChunkSizeKb int64 `yaml:"chunk-size-kb"`

	CustomEndpoint string `yaml:"custom-endpoint"`

	HttpTimeout time.Duration `yaml:"http-timeout"`

	MaxRetrySleep time.Duration `yaml:"max-retry-sleep"`

	S3Region string `yaml:"s3-region"`

	ThrottleBytesPerSec float64 `yaml:"throttle-bytes-per-sec"`
}

type flagBinding struct {
	key  string
	flag string
}

var flagBindings = []flagBinding{
	{"index.block-size", "block-size"},
	{"index.select-block-size", "select-block-size"},
	{"logging.file-path", "log-file"},
	{"logging.format", "log-format"},
	{"logging.log-rotate.backup-file-count", "log-rotate-backup-file-count"},
	{"logging.log-rotate.compress", "log-rotate-compress"},
	{"logging.log-rotate.max-file-size-mb", "log-rotate-max-file-size-mb"},
	{"logging.severity", "log-severity"},
	{"metrics.prometheus-port", "prometheus-port"},
	{"monitoring.tracing-mode", "tracing-mode"},
	{"read.discard", "discard"},
	{"read.from-end", "from-end"},
	{"read.length", "length"},
	{"read.offset", "offset"},
	{"read.parallelism", "parallelism"},
	{"read.read-size", "read-size"},
	{"resource.anonymous-access", "anonymous-access"},
	{"resource.chunk-size-kb", "chunk-size-kb"},
	{"resource.custom-endpoint", "custom-endpoint"},
	{"resource.http-timeout", "http-timeout"},
	{"resource.max-retry-sleep", "max-retry-sleep"},
	{"resource.s3-region", "s3-region"},
	{"resource.throttle-bytes-per-sec", "throttle-bytes-per-sec"},
}

// BindFlags declares every config flag on flagSet and binds each one to its
// config key in v.
func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	flagSet.IntP("block-size", "", 32768, "Size in bytes of the block cache kept by each index. 0 disables caching.")

	flagSet.BoolP("select-block-size", "", false, "Round block-size up to a power of two between 32 and 32768.")

	flagSet.StringP("log-file", "", "", "The file for storing logs. When not provided, logs are printed to stderr.")

	flagSet.StringP("log-format", "", "text", "The format of the log file: 'text' or 'json'.")

	flagSet.IntP("log-rotate-backup-file-count", "", 10, "The maximum number of backup log files to retain after they have been rotated. 0 retains all backups.")

	flagSet.BoolP("log-rotate-compress", "", true, "Controls whether the rotated log files should be compressed using gzip.")

	flagSet.IntP("log-rotate-max-file-size-mb", "", 512, "The maximum size in megabytes that a log file can reach before it is rotated.")

	flagSet.StringP("log-severity", "", "info", "Specifies the logging severity expressed as one of [trace, debug, info, warning, error, off]")

	flagSet.IntP("prometheus-port", "", 0, "Expose Prometheus metrics endpoint on this port and a path of /metrics. 0 disables the endpoint.")

	flagSet.StringP("tracing-mode", "", "", "Trace exporter to use: '' (disabled) or 'stdout'.")

	flagSet.BoolP("discard", "", false, "Read through the index without writing the data to stdout.")

	flagSet.BoolP("from-end", "", false, "Interpret offset as a distance back from the end of the resource.")

	flagSet.Int64P("length", "", -1, "Number of bytes to read. -1 reads until the end of the resource.")

	flagSet.Int64P("offset", "", 0, "Position at which reading starts.")

	flagSet.IntP("parallelism", "", 4, "Maximum number of sources read concurrently.")

	flagSet.IntP("read-size", "", 4096, "Size of each sequential Read issued against the index.")

	flagSet.BoolP("anonymous-access", "", false, "Access GCS and S3 without credentials.")

	flagSet.IntP("chunk-size-kb", "", 1024, "Size of the read-ahead chunk kept by network resources, in KiB.")

	flagSet.StringP("custom-endpoint", "", "", "Alternate endpoint for the GCS or S3 backend, e.g. a local emulator.")

	flagSet.DurationP("http-timeout", "", 30*time.Second, "Timeout of a single request made by the http backend.")

	flagSet.DurationP("max-retry-sleep", "", 30*time.Second, "The maximum duration allowed to sleep in a retry loop with exponential backoff.")

	flagSet.StringP("s3-region", "", "us-east-1", "Region used by the S3 backend.")

	flagSet.Float64P("throttle-bytes-per-sec", "", 0, "Limit on resource read throughput in bytes per second. 0 disables throttling.")

	for _, b := range flagBindings {
		if err := v.BindPFlag(b.key, flagSet.Lookup(b.flag)); err != nil {
			return err
		}
	}
	return nil
}
