// Copyright 2025 Blink Labs Software
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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel           string `yaml:"logLevel"           split_words:"true"`
	FlagThreshold      int64  `yaml:"flagThreshold"      split_words:"true"`
	RequiredReputation int64  `yaml:"requiredReputation" split_words:"true"`
	VoteWeight         int64  `yaml:"voteWeight"         split_words:"true"`
	VoterReward        int64  `yaml:"voterReward"        split_words:"true"`
	MaxContentSize     int    `yaml:"maxContentSize"     split_words:"true"`
}

var globalConfig = &Config{
	LogLevel:           "info",
	FlagThreshold:      -10,
	RequiredReputation: 1,
	VoteWeight:         2,
	VoterReward:        2,
	MaxContentSize:     8192,
}

// LoadConfig loads the process configuration from an optional YAML file
// overlaid with AGORA_* environment variables. When no file is given,
// ~/.agora/agora.yaml and /etc/agora/agora.yaml are tried in that order.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".agora", "agora.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/agora/agora.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("agora", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if c.VoteWeight < 1 {
		return fmt.Errorf("invalid voteWeight: %d (must be >= 1)", c.VoteWeight)
	}
	if c.MaxContentSize <= 0 {
		return fmt.Errorf(
			"invalid maxContentSize: %d (must be positive)",
			c.MaxContentSize,
		)
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
