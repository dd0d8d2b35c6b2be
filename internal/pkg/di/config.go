// Copyright 2026 The valc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package di

import (
	"flag"
	"fmt"
	"io/ioutil"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"
)

// FlagSet lets callers that build their own flag.FlagSet register the
// -config flag alongside their own. Configuration is YAML
// (sigs.k8s.io/yaml, which unmarshals by converting to JSON and reusing
// encoding/json's struct tags).
var FlagSet flag.FlagSet
var configFile string

func init() {
	FlagSet.StringVar(&configFile, "config", "valdi.yaml", "path to analysis configuration file")
}

// Config is the pass's configuration: which functions to skip entirely.
// Definite initialization is meaningless to run over generated or
// vendored code the user does not control, so the only configurable
// scoping concern is an exclusion list.
type Config struct {
	// Exclude lists function-id patterns to skip. A pattern ending in "*"
	// matches by prefix; any other pattern matches exactly.
	Exclude []string `json:"exclude"`
}

func (c *Config) skips(id string) bool {
	if c == nil {
		return false
	}
	for _, pat := range c.Exclude {
		if strings.HasSuffix(pat, "*") {
			if strings.HasPrefix(id, strings.TrimSuffix(pat, "*")) {
				return true
			}
			continue
		}
		if pat == id {
			return true
		}
	}
	return false
}

var readFileOnce sync.Once
var readConfigCached *Config
var readConfigCachedErr error

// ReadConfig loads and caches the configuration named by -config. The file
// is read at most once per process; later calls return the cached result.
func ReadConfig() (*Config, error) {
	readFileOnce.Do(func() {
		bytes, err := ioutil.ReadFile(configFile)
		if err != nil {
			readConfigCachedErr = fmt.Errorf("di: error reading analysis config: %v", err)
			return
		}
		readConfigCached, readConfigCachedErr = parseConfig(bytes)
	})
	return readConfigCached, readConfigCachedErr
}

// SetConfigBytes parses bytes and installs the result as the cached
// configuration directly, bypassing the filesystem and the -config flag. It exists for tests that need a
// fixed configuration without writing a file to disk.
func SetConfigBytes(bytes []byte) error {
	cfg, err := parseConfig(bytes)
	if err != nil {
		return err
	}
	readFileOnce.Do(func() {})
	readConfigCached, readConfigCachedErr = cfg, nil
	return nil
}

func parseConfig(bytes []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.Unmarshal(bytes, c); err != nil {
		return nil, fmt.Errorf("di: error parsing analysis config: %v", err)
	}
	return c, nil
}
