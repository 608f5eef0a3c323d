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

package cmd

import (
	"fmt"
	"os"

	"github.com/googlecloudplatform/mediaindex/cfg"
	"github.com/googlecloudplatform/mediaindex/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ReadFn receives the validated config and the sources named on the command
// line.
type ReadFn func(c cfg.Config, sources []string) error

// NewRootCmd returns the root command. read is invoked once the flags and the
// optional config file have been merged and validated.
func NewRootCmd(read ReadFn) (*cobra.Command, error) {
	var (
		configObj cfg.Config
		cfgFile   string
		v         = viper.New()
	)

	rootCmd := &cobra.Command{
		Use:   "mediaindex [flags] source...",
		Short: "Read media resources through a block-cached random access index",
		Long: `mediaindex reads a byte range of one or more resources through an index
that keeps a single block of recently read data, so that the small, sequential
and slightly backward reads made by media demuxers cost as few resource calls
as possible. A source is a local path, a file:// URL, an http(s):// URL,
gs://bucket/object or s3://bucket/key.`,
		Version:      common.GetVersion(),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile, &configObj); err != nil {
				return err
			}
			if err := cfg.Rationalize(&configObj); err != nil {
				return fmt.Errorf("error while rationalizing config: %w", err)
			}
			if err := cfg.ValidateConfig(&configObj); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return read(configObj, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "The path to the config file where all mediaindex related config needs to be specified.")
	if err := cfg.BindFlags(v, rootCmd.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}
	return rootCmd, nil
}

// initConfig merges the config file, when given, under the command line flags
// and decodes the result into c.
func initConfig(v *viper.Viper, cfgFile string, c *cfg.Config) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error while reading the config file: %w", err)
		}
	}
	if err := v.Unmarshal(c, cfg.DecoderOptions()...); err != nil {
		return fmt.Errorf("error while unmarshaling the config: %w", err)
	}
	return nil
}

func Execute() {
	rootCmd, err := NewRootCmd(Run)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
