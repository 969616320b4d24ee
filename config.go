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

package agora

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/reputation"
	"github.com/blinklabs-io/agora/voting"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultFlagThreshold is the score at or below which content is
	// flagged
	DefaultFlagThreshold = -10
	// DefaultRequiredReputation is the minimum reputation needed to vote
	DefaultRequiredReputation = 1
	// DefaultMaxContentSize caps content payloads in bytes
	DefaultMaxContentSize = 8192
)

type Config struct {
	logger             *slog.Logger
	promRegistry       prometheus.Registerer
	eventBus           *event.Bus
	adminAuthorizer    reputation.AuthorizerFunc
	voteWeight         voting.WeightFunc
	flagThreshold      int64
	requiredReputation int64
	voterReward        int64
	maxContentSize     int
}

type ConfigOptionFunc func(*Config)

// NewConfig creates a config with default values, modified by the
// provided options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		flagThreshold:      DefaultFlagThreshold,
		requiredReputation: DefaultRequiredReputation,
		voterReward:        voting.DefaultVoterReward,
		maxContentSize:     DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.maxContentSize <= 0 {
		return fmt.Errorf(
			"invalid max content size: %d",
			c.maxContentSize,
		)
	}
	return nil
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithEventBus specifies an externally constructed event bus for live
// subscribers. By default the ledger creates and owns its own bus.
func WithEventBus(bus *event.Bus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = bus
	}
}

// WithFlagThreshold specifies the score floor that triggers flagging.
// The flag is sticky: once set it never clears. The default is -10.
func WithFlagThreshold(threshold int64) ConfigOptionFunc {
	return func(c *Config) {
		c.flagThreshold = threshold
	}
}

// WithRequiredReputationToVote specifies the minimum reputation an
// account needs before its votes are accepted. The default is 1.
func WithRequiredReputationToVote(required int64) ConfigOptionFunc {
	return func(c *Config) {
		c.requiredReputation = required
	}
}

// WithVoteWeightFunc specifies how a voter's reputation maps to the
// score magnitude of their vote. The default applies a fixed weight of
// 2 regardless of reputation.
func WithVoteWeightFunc(weight voting.WeightFunc) ConfigOptionFunc {
	return func(c *Config) {
		c.voteWeight = weight
	}
}

// WithVoterReward specifies the fixed reputation credited for each
// successful vote. The default is 2.
func WithVoterReward(reward int64) ConfigOptionFunc {
	return func(c *Config) {
		c.voterReward = reward
	}
}

// WithMaxContentSize specifies the maximum content payload size in
// bytes. The default is 8192.
func WithMaxContentSize(size int) ConfigOptionFunc {
	return func(c *Config) {
		c.maxContentSize = size
	}
}

// WithAdminAuthorizer specifies a predicate gating administrative
// reputation adjustments. The default permits all adjustments, since
// caller identity is authenticated upstream.
func WithAdminAuthorizer(
	authorizer reputation.AuthorizerFunc,
) ConfigOptionFunc {
	return func(c *Config) {
		c.adminAuthorizer = authorizer
	}
}
