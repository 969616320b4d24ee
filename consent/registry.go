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

package consent

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

const ConsentChangedEventType event.Kind = "consent.changed"

type ConsentChangedEvent struct {
	Account account.Account `json:"account"`
	Granted bool            `json:"granted"`
}

// ErrRequired is returned when an account without granted consent
// attempts a content-mutating or vote-casting command
var ErrRequired = errors.New("consent required")

type RegistryConfig struct {
	Logger       *slog.Logger
	EventLog     *event.Log
	PromRegistry prometheus.Registerer
}

// Registry tracks per-account data-storage consent. Consent is
// self-service: only the account itself gives or withdraws it, and both
// operations are idempotent.
type Registry struct {
	config  RegistryConfig
	logger  *slog.Logger
	metrics struct {
		granted prometheus.Gauge
		changes prometheus.Counter
	}
	mu      sync.RWMutex
	granted map[account.Account]bool
}

func NewRegistry(config RegistryConfig) *Registry {
	r := &Registry{
		config:  config,
		granted: make(map[account.Account]bool),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	promautoFactory := promauto.With(config.PromRegistry)
	r.metrics.granted = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "agora_consent_granted",
		Help: "current count of accounts with granted consent",
	})
	r.metrics.changes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_consent_changes_total",
		Help: "total accepted consent commands",
	})
	return r
}

// Give grants consent for the account. Calling it again for an account
// that already granted consent is a no-op for state but is still
// recorded in the event log.
func (r *Registry) Give(acct account.Account) error {
	return r.set(acct, true)
}

// Withdraw revokes consent for the account
func (r *Registry) Withdraw(acct account.Account) error {
	return r.set(acct, false)
}

func (r *Registry) set(acct account.Account, granted bool) error {
	if err := account.Validate(acct); err != nil {
		return err
	}
	r.mu.Lock()
	prev := r.granted[acct]
	if granted {
		r.granted[acct] = true
	} else {
		delete(r.granted, acct)
	}
	// Append inside the critical section so log order matches mutation
	// order
	if r.config.EventLog != nil {
		r.config.EventLog.Append(
			ConsentChangedEventType,
			acct,
			nil,
			ConsentChangedEvent{
				Account: acct,
				Granted: granted,
			},
		)
	}
	r.mu.Unlock()
	if prev != granted {
		if granted {
			r.metrics.granted.Inc()
		} else {
			r.metrics.granted.Dec()
		}
	}
	r.metrics.changes.Inc()
	r.logger.Debug(
		"consent changed",
		"component", "consent",
		"account", acct,
		"granted", granted,
	)
	return nil
}

// Check returns the current consent state for the account. Unknown and
// malformed accounts report false. Check has no side effects.
func (r *Registry) Check(acct account.Account) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.granted[acct]
}
