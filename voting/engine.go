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

package voting

import (
	"io"
	"log/slog"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/consent"
	"github.com/blinklabs-io/agora/content"
	"github.com/blinklabs-io/agora/reputation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// DefaultVoteWeight is the fixed score magnitude of a single vote
	DefaultVoteWeight = 2
	// DefaultVoterReward is the reputation credited for a cast vote
	DefaultVoterReward = 2
)

// WeightFunc maps the voter's current reputation to the vote's score
// magnitude. Implementations must return a value >= 1; smaller results
// are clamped.
type WeightFunc func(voterReputation int64) int64

// FixedWeight returns a WeightFunc that ignores reputation and always
// applies the given weight
func FixedWeight(weight int64) WeightFunc {
	return func(int64) int64 {
		return weight
	}
}

type EngineConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Consent      *consent.Registry
	Reputation   *reputation.Ledger
	Content      *content.Store
	// Weight computes the vote weight from the voter's reputation;
	// nil means FixedWeight(DefaultVoteWeight)
	Weight WeightFunc
	// VoterReward is the fixed reputation credit per successful vote
	VoterReward int64
}

// Engine orchestrates vote application across the consent registry, the
// reputation ledger, and the content store. It owns no durable state of
// its own; the vote records live in the content store, and all events
// are emitted by the mutated components.
type Engine struct {
	config  EngineConfig
	logger  *slog.Logger
	weight  WeightFunc
	metrics struct {
		votes    *prometheus.CounterVec
		rejected *prometheus.CounterVec
	}
}

func NewEngine(config EngineConfig) *Engine {
	e := &Engine{
		config: config,
		weight: config.Weight,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger
	}
	if e.weight == nil {
		e.weight = FixedWeight(DefaultVoteWeight)
	}
	promautoFactory := promauto.With(config.PromRegistry)
	e.metrics.votes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_votes_total",
			Help: "total accepted votes per direction",
		},
		[]string{"direction"},
	)
	e.metrics.rejected = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_votes_rejected_total",
			Help: "total rejected votes per reason",
		},
		[]string{"reason"},
	)
	return e
}

// Vote casts a vote by the voter on the content record and returns the
// updated score. Validation short-circuits in a fixed order so the
// reported failure is deterministic: consent, then reputation, then
// content existence, then the duplicate-vote check. Each (content,
// voter) pair votes at most once; the direction of the attempt does not
// matter.
func (e *Engine) Vote(
	contentId uint64,
	voter account.Account,
	upvote bool,
) (int64, error) {
	if !e.config.Consent.Check(voter) {
		e.metrics.rejected.WithLabelValues("consent").Inc()
		return 0, consent.ErrRequired
	}
	rep := e.config.Reputation.Get(voter)
	if rep < e.config.Reputation.Required() {
		e.metrics.rejected.WithLabelValues("reputation").Inc()
		return 0, reputation.ErrInsufficient
	}
	if _, err := e.config.Content.Get(contentId); err != nil {
		e.metrics.rejected.WithLabelValues("not_found").Inc()
		return 0, err
	}
	if e.config.Content.HasVoted(contentId, voter) {
		e.metrics.rejected.WithLabelValues("duplicate").Inc()
		return 0, content.ErrDuplicateVote
	}
	weight := e.weight(rep)
	if weight < 1 {
		weight = 1
	}
	delta := weight
	direction := "up"
	if !upvote {
		delta = -weight
		direction = "down"
	}
	// The store re-checks and records the vote under its own lock, so a
	// concurrent duplicate loses there even though the pre-checks above
	// already passed
	newScore, err := e.config.Content.ApplyVote(contentId, voter, delta)
	if err != nil {
		e.metrics.rejected.WithLabelValues("duplicate").Inc()
		return 0, err
	}
	if _, err := e.config.Reputation.RewardVoter(
		voter,
		e.config.VoterReward,
	); err != nil {
		// Unreachable in practice: consent was granted, so the account
		// identifier already passed validation
		return 0, err
	}
	e.metrics.votes.WithLabelValues(direction).Inc()
	e.logger.Debug(
		"vote applied",
		"component", "voting",
		"content_id", contentId,
		"voter", voter,
		"direction", direction,
		"weight", weight,
		"new_score", newScore,
	)
	return newScore, nil
}
