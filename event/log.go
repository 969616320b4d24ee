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

package event

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/account"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entry is a single accepted mutation in the ledger history. Entries are
// immutable once appended and ordered by sequence number.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Account   account.Account `json:"account,omitempty"`
	ContentID *uint64         `json:"contentId,omitempty"`
	Payload   any             `json:"payload"`
	Seq       uint64          `json:"seq"`
}

// Filter selects a subset of log entries. The zero value matches every
// entry.
type Filter struct {
	// Kinds restricts matches to the listed kinds (empty = all)
	Kinds []Kind
	// Account restricts matches to entries referencing the account
	Account account.Account
	// ContentID restricts matches to entries referencing the content id
	ContentID *uint64
	// MinSeq is the first sequence number considered (inclusive)
	MinSeq uint64
	// MaxSeq bounds the sequence range (inclusive) when non-nil
	MaxSeq *uint64
}

// Match returns true if the entry passes the filter
func (f Filter) Match(e Entry) bool {
	if e.Seq < f.MinSeq {
		return false
	}
	if f.MaxSeq != nil && e.Seq > *f.MaxSeq {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if f.ContentID != nil {
		if e.ContentID == nil || *e.ContentID != *f.ContentID {
			return false
		}
	}
	return true
}

type LogConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Bus receives each appended entry for push delivery (optional)
	Bus *Bus
}

// Log is the append-only record of every accepted mutation. Sequence
// numbers are assigned at append time, start at 0, and have no gaps, so
// the log order is the mutation order.
type Log struct {
	config  LogConfig
	logger  *slog.Logger
	metrics struct {
		appended *prometheus.CounterVec
	}
	mu      sync.RWMutex
	entries []Entry
	// notify is closed and replaced on each append so blocking iterators
	// can wait for new entries without busy polling
	notify chan struct{}
}

func NewLog(config LogConfig) *Log {
	l := &Log{
		config: config,
		notify: make(chan struct{}),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	promautoFactory := promauto.With(config.PromRegistry)
	l.metrics.appended = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_events_appended_total",
			Help: "total log entries appended per kind",
		},
		[]string{"kind"},
	)
	return l
}

// Append stores a new entry with the next sequence number and returns
// it. Append cannot fail; memory exhaustion aborts the process, which is
// the required behavior for the history store.
func (l *Log) Append(
	kind Kind,
	acct account.Account,
	contentID *uint64,
	payload any,
) Entry {
	l.mu.Lock()
	entry := Entry{
		Seq:       uint64(len(l.entries)),
		Kind:      kind,
		Timestamp: time.Now(),
		Account:   acct,
		ContentID: contentID,
		Payload:   payload,
	}
	l.entries = append(l.entries, entry)
	close(l.notify)
	l.notify = make(chan struct{})
	l.mu.Unlock()
	l.metrics.appended.WithLabelValues(string(kind)).Inc()
	l.logger.Debug(
		"appended entry",
		"component", "eventlog",
		"seq", entry.Seq,
		"kind", kind,
	)
	if l.config.Bus != nil {
		l.config.Bus.PublishAsync(entry)
	}
	return entry
}

// Len returns the number of entries (also the next sequence number)
func (l *Log) Len() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.entries))
}

// Query returns a snapshot of all entries matching the filter, ordered
// by sequence number ascending
func (l *Log) Query(filter Filter) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ret []Entry
	for i := int(filter.MinSeq); i < len(l.entries); i++ {
		e := l.entries[i]
		if filter.MaxSeq != nil && e.Seq > *filter.MaxSeq {
			break
		}
		if filter.Match(e) {
			ret = append(ret, e)
		}
	}
	return ret
}

// Entry returns the entry with the given sequence number
func (l *Log) Entry(seq uint64) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq >= uint64(len(l.entries)) {
		return Entry{}, false
	}
	return l.entries[seq], true
}
