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

// Package agora implements a reputation-gated content and voting
// ledger: an in-memory, mutation-ordered state machine holding content
// records, per-account reputation and consent, and the append-only
// history of every accepted mutation.
package agora

import (
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/consent"
	"github.com/blinklabs-io/agora/content"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/reputation"
	"github.com/blinklabs-io/agora/voting"
)

// Ledger wires the consent registry, reputation ledger, content store,
// voting engine, and event log together and exposes the command/query
// surface consumed by external collaborators. Every mutating command is
// serialized through a single apply mutex, which is the ordering
// authority that makes the id-assignment and double-vote invariants
// hold without race windows. Queries run concurrently and observe
// consistent snapshots.
type Ledger struct {
	config     Config
	logger     *slog.Logger
	eventBus   *event.Bus
	eventLog   *event.Log
	consent    *consent.Registry
	reputation *reputation.Ledger
	content    *content.Store
	voting     *voting.Engine
	ownsBus    bool
	// applyMu serializes all state-mutating commands
	applyMu sync.Mutex
}

// New creates a Ledger from the given config
func New(cfg Config) (*Ledger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		config: cfg,
	}
	if cfg.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = cfg.logger
	}
	if cfg.eventBus == nil {
		l.eventBus = event.NewBus(cfg.promRegistry, l.logger)
		l.ownsBus = true
	} else {
		l.eventBus = cfg.eventBus
	}
	l.eventLog = event.NewLog(event.LogConfig{
		Logger:       l.logger,
		PromRegistry: cfg.promRegistry,
		Bus:          l.eventBus,
	})
	l.consent = consent.NewRegistry(consent.RegistryConfig{
		Logger:       l.logger,
		EventLog:     l.eventLog,
		PromRegistry: cfg.promRegistry,
	})
	l.reputation = reputation.NewLedger(reputation.LedgerConfig{
		Logger:         l.logger,
		EventLog:       l.eventLog,
		PromRegistry:   cfg.promRegistry,
		RequiredToVote: cfg.requiredReputation,
		Authorizer:     cfg.adminAuthorizer,
	})
	l.content = content.NewStore(content.StoreConfig{
		Logger:        l.logger,
		EventLog:      l.eventLog,
		PromRegistry:  cfg.promRegistry,
		Consent:       l.consent,
		FlagThreshold: cfg.flagThreshold,
		MaxDataSize:   cfg.maxContentSize,
	})
	l.voting = voting.NewEngine(voting.EngineConfig{
		Logger:       l.logger,
		PromRegistry: cfg.promRegistry,
		Consent:      l.consent,
		Reputation:   l.reputation,
		Content:      l.content,
		Weight:       cfg.voteWeight,
		VoterReward:  cfg.voterReward,
	})
	return l, nil
}

// Stop shuts down the event bus if the ledger owns it. Ledger state
// remains readable afterward.
func (l *Ledger) Stop() {
	if l.ownsBus {
		l.eventBus.Stop()
	}
}

// GiveConsent grants data-storage consent for the account
func (l *Ledger) GiveConsent(acct account.Account) error {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return l.consent.Give(acct)
}

// WithdrawConsent revokes data-storage consent for the account
func (l *Ledger) WithdrawConsent(acct account.Account) error {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return l.consent.Withdraw(acct)
}

// CheckConsent returns the current consent state for the account
func (l *Ledger) CheckConsent(acct account.Account) bool {
	return l.consent.Check(acct)
}

// CreateContent submits a new content record and returns its id
func (l *Ledger) CreateContent(
	author account.Account,
	data string,
) (uint64, error) {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return l.content.Create(author, data)
}

// GetContent returns the content record with the given id
func (l *Ledger) GetContent(id uint64) (content.Content, error) {
	return l.content.Get(id)
}

// ContentsCount returns the number of content records
func (l *Ledger) ContentsCount() uint64 {
	return l.content.Count()
}

// AuthorContents returns the ids authored by the account in creation
// order
func (l *Ledger) AuthorContents(author account.Account) []uint64 {
	return l.content.ByAuthor(author)
}

// AuthorScore returns the combined score of the account's content
func (l *Ledger) AuthorScore(author account.Account) int64 {
	return l.content.AuthorScore(author)
}

// Vote casts a vote on a content record and returns the updated score
func (l *Ledger) Vote(
	contentId uint64,
	voter account.Account,
	upvote bool,
) (int64, error) {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return l.voting.Vote(contentId, voter, upvote)
}

// AdjustReputationAdmin applies a privileged direct delta to the
// account's reputation and returns the new score
func (l *Ledger) AdjustReputationAdmin(
	acct account.Account,
	delta int64,
) (int64, error) {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return l.reputation.AdjustAdmin(acct, delta)
}

// GetReputation returns the account's current reputation
func (l *Ledger) GetReputation(acct account.Account) int64 {
	return l.reputation.Get(acct)
}

// RequiredReputationToVote returns the configured voting threshold
func (l *Ledger) RequiredReputationToVote() int64 {
	return l.reputation.Required()
}

// QueryEvents returns a snapshot of history entries matching the
// filter, ordered by sequence number
func (l *Ledger) QueryEvents(filter event.Filter) []event.Entry {
	return l.eventLog.Query(filter)
}

// EventIterator returns a restartable pull iterator over history
// entries matching the filter
func (l *Ledger) EventIterator(filter event.Filter) *event.LogIterator {
	return l.eventLog.Iterator(filter)
}

// EventBus returns the bus delivering entries to live subscribers
func (l *Ledger) EventBus() *event.Bus {
	return l.eventBus
}

// EventLog returns the append-only mutation history
func (l *Ledger) EventLog() *event.Log {
	return l.eventLog
}
