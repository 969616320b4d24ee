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

package reputation

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const ReputationAdjustedEventType event.Kind = "reputation.adjusted"

// Origin values distinguish administrative adjustments from vote-derived
// rewards in the audit trail
const (
	OriginAdmin = "admin"
	OriginVote  = "vote"
)

type ReputationAdjustedEvent struct {
	Account  account.Account `json:"account"`
	Origin   string          `json:"origin"`
	Delta    int64           `json:"delta"`
	NewScore int64           `json:"newScore"`
}

var (
	ErrInsufficient  = errors.New("insufficient reputation to vote")
	ErrNotAuthorized = errors.New("reputation adjustment not authorized")
)

// AuthorizerFunc decides whether an administrative adjustment is
// permitted. The identity behind the call is authenticated upstream, so
// the predicate only sees the target account and delta.
type AuthorizerFunc func(acct account.Account, delta int64) bool

type LedgerConfig struct {
	Logger       *slog.Logger
	EventLog     *event.Log
	PromRegistry prometheus.Registerer
	// Authorizer gates AdjustAdmin; nil allows all adjustments
	Authorizer AuthorizerFunc
	// RequiredToVote is the minimum reputation needed to cast a vote
	RequiredToVote int64
}

// Ledger tracks per-account reputation scores. Scores are signed, start
// at 0, and have no floor or ceiling.
type Ledger struct {
	config  LedgerConfig
	logger  *slog.Logger
	metrics struct {
		adjustments *prometheus.CounterVec
	}
	mu     sync.RWMutex
	scores map[account.Account]int64
}

func NewLedger(config LedgerConfig) *Ledger {
	l := &Ledger{
		config: config,
		scores: make(map[account.Account]int64),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	promautoFactory := promauto.With(config.PromRegistry)
	l.metrics.adjustments = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_reputation_adjustments_total",
			Help: "total reputation adjustments per origin",
		},
		[]string{"origin"},
	)
	return l
}

// Get returns the account's current reputation. Unknown accounts report
// 0. Get has no side effects.
func (l *Ledger) Get(acct account.Account) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scores[acct]
}

// Required returns the configured minimum reputation needed to vote
func (l *Ledger) Required() int64 {
	return l.config.RequiredToVote
}

// AdjustAdmin applies a direct administrative delta to the account's
// score and returns the new score. The emitted event carries the
// "admin" origin so administrative mutation stays auditable separately
// from vote-derived rewards.
func (l *Ledger) AdjustAdmin(
	acct account.Account,
	delta int64,
) (int64, error) {
	if err := account.Validate(acct); err != nil {
		return 0, err
	}
	if l.config.Authorizer != nil && !l.config.Authorizer(acct, delta) {
		return 0, ErrNotAuthorized
	}
	return l.apply(acct, delta, OriginAdmin), nil
}

// RewardVoter credits the fixed per-vote reputation reward. It shares
// the mutation path with AdjustAdmin but tags the emitted event with the
// "vote" origin. Intended to be called by the voting engine only.
func (l *Ledger) RewardVoter(
	acct account.Account,
	amount int64,
) (int64, error) {
	if err := account.Validate(acct); err != nil {
		return 0, err
	}
	return l.apply(acct, amount, OriginVote), nil
}

func (l *Ledger) apply(
	acct account.Account,
	delta int64,
	origin string,
) int64 {
	l.mu.Lock()
	newScore := l.scores[acct] + delta
	l.scores[acct] = newScore
	// Append inside the critical section so log order matches mutation
	// order
	if l.config.EventLog != nil {
		l.config.EventLog.Append(
			ReputationAdjustedEventType,
			acct,
			nil,
			ReputationAdjustedEvent{
				Account:  acct,
				Delta:    delta,
				NewScore: newScore,
				Origin:   origin,
			},
		)
	}
	l.mu.Unlock()
	l.metrics.adjustments.WithLabelValues(origin).Inc()
	l.logger.Debug(
		"reputation adjusted",
		"component", "reputation",
		"account", acct,
		"delta", delta,
		"new_score", newScore,
		"origin", origin,
	)
	return newScore
}
