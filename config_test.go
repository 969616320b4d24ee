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
	"log/slog"
	"os"
	"testing"

	"github.com/blinklabs-io/agora/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, int64(DefaultFlagThreshold), cfg.flagThreshold)
	assert.Equal(
		t,
		int64(DefaultRequiredReputation),
		cfg.requiredReputation,
	)
	assert.Equal(t, int64(voting.DefaultVoterReward), cfg.voterReward)
	assert.Equal(t, DefaultMaxContentSize, cfg.maxContentSize)
	assert.Nil(t, cfg.logger)
	assert.Nil(t, cfg.voteWeight)
	assert.NoError(t, cfg.validate())
}

func TestNewConfigOptions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg := NewConfig(
		WithLogger(logger),
		WithFlagThreshold(-5),
		WithRequiredReputationToVote(3),
		WithVoterReward(1),
		WithMaxContentSize(512),
		WithVoteWeightFunc(voting.FixedWeight(7)),
	)
	assert.Equal(t, logger, cfg.logger)
	assert.Equal(t, int64(-5), cfg.flagThreshold)
	assert.Equal(t, int64(3), cfg.requiredReputation)
	assert.Equal(t, int64(1), cfg.voterReward)
	assert.Equal(t, 512, cfg.maxContentSize)
	require.NotNil(t, cfg.voteWeight)
	assert.Equal(t, int64(7), cfg.voteWeight(0))
}

func TestConfigValidate(t *testing.T) {
	cfg := NewConfig(WithMaxContentSize(0))
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid max content size")

	_, err = New(cfg)
	require.Error(t, err)
}
