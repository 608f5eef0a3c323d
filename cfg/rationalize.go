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
	"net/url"
)

func decodeURL(u string) (string, error) {
	decodedURL, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	return decodedURL.String(), nil
}

// Rationalize updates the config fields based on the values of other fields.
func Rationalize(c *Config) error {
	var err error
	if c.Resource.CustomEndpoint, err = decodeURL(c.Resource.CustomEndpoint); err != nil {
		return err
	}

	if c.Logging.Severity == "" {
		c.Logging.Severity = InfoLogSeverity
	}
	return nil
}
