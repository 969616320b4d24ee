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

package content

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/consent"
	"github.com/blinklabs-io/agora/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultMaxDataSize = 8192

// Content is a single user-submitted record. The payload and author are
// immutable after creation; only the score and the derived flag state
// change, and records are never destroyed.
type Content struct {
	CreatedAt time.Time       `json:"createdAt"`
	Author    account.Account `json:"author"`
	Data      string          `json:"data"`
	ID        uint64          `json:"id"`
	Score     int64           `json:"score"`
	Flagged   bool            `json:"flagged"`
}

type StoreConfig struct {
	Logger       *slog.Logger
	EventLog     *event.Log
	PromRegistry prometheus.Registerer
	// Consent gates every content submission
	Consent *consent.Registry
	// FlagThreshold is the score at or below which a record is flagged
	FlagThreshold int64
	// MaxDataSize caps the content payload size in bytes
	MaxDataSize int
}

// Store owns content records and their vote records. Ids are assigned
// sequentially from 0 and never reused.
type Store struct {
	config  StoreConfig
	logger  *slog.Logger
	metrics struct {
		contents prometheus.Gauge
		flagged  prometheus.Counter
	}
	mu       sync.RWMutex
	contents []*Content
	byAuthor map[account.Account][]uint64
	// votes holds one entry per (content, voter) pair that has voted
	votes map[uint64]map[account.Account]struct{}
}

func NewStore(config StoreConfig) *Store {
	s := &Store{
		config:   config,
		byAuthor: make(map[account.Account][]uint64),
		votes:    make(map[uint64]map[account.Account]struct{}),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		s.logger = config.Logger
	}
	if s.config.MaxDataSize <= 0 {
		s.config.MaxDataSize = DefaultMaxDataSize
	}
	promautoFactory := promauto.With(config.PromRegistry)
	s.metrics.contents = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "agora_contents",
		Help: "current count of content records",
	})
	s.metrics.flagged = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_contents_flagged_total",
		Help: "total content records flagged",
	})
	return s
}

// Create validates consent and payload, stores a new record with the
// next sequential id, and returns the id. The consent gate runs before
// any other validation.
func (s *Store) Create(
	author account.Account,
	data string,
) (uint64, error) {
	if s.config.Consent != nil && !s.config.Consent.Check(author) {
		return 0, consent.ErrRequired
	}
	if data == "" {
		return 0, ErrInvalidContent
	}
	if len(data) > s.config.MaxDataSize {
		return 0, DataSizeError{Size: len(data), Max: s.config.MaxDataSize}
	}
	s.mu.Lock()
	record := &Content{
		ID:        uint64(len(s.contents)),
		Author:    author,
		Data:      data,
		CreatedAt: time.Now(),
	}
	s.contents = append(s.contents, record)
	s.byAuthor[author] = append(s.byAuthor[author], record.ID)
	// Append inside the critical section so log order matches id order
	if s.config.EventLog != nil {
		id := record.ID
		s.config.EventLog.Append(
			ContentCreatedEventType,
			author,
			&id,
			ContentCreatedEvent{
				ID:     record.ID,
				Author: author,
				Data:   data,
			},
		)
	}
	s.mu.Unlock()
	s.metrics.contents.Inc()
	s.logger.Debug(
		"created content",
		"component", "content",
		"id", record.ID,
		"author", author,
	)
	return record.ID, nil
}

// Get returns a copy of the record or ErrNotFound
func (s *Store) Get(id uint64) (Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.contents)) {
		return Content{}, ErrNotFound
	}
	return *s.contents[id], nil
}

// Count returns the number of records, which is also the next id to be
// assigned
func (s *Store) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.contents))
}

// ByAuthor returns the ids authored by the account in creation order
func (s *Store) ByAuthor(author account.Account) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byAuthor[author])
}

// AuthorScore returns the sum of the scores of the account's records
func (s *Store) AuthorScore(author account.Account) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, id := range s.byAuthor[author] {
		total += s.contents[id].Score
	}
	return total
}

// HasVoted returns true if the voter already has a vote record for the
// content. Unknown content ids report false.
func (s *Store) HasVoted(id uint64, voter account.Account) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[id][voter]
	return ok
}

// ApplyVote records the (content, voter) vote and applies the score
// delta in a single critical section, closing the double-vote window.
// When the new score first reaches the flag threshold the record is
// flagged; the flag never clears, even if later votes raise the score
// back above the threshold. Intended to be called by the voting engine
// only.
func (s *Store) ApplyVote(
	id uint64,
	voter account.Account,
	delta int64,
) (int64, error) {
	s.mu.Lock()
	if id >= uint64(len(s.contents)) {
		s.mu.Unlock()
		return 0, ErrNotFound
	}
	if _, ok := s.votes[id][voter]; ok {
		s.mu.Unlock()
		return 0, ErrDuplicateVote
	}
	if s.votes[id] == nil {
		s.votes[id] = make(map[account.Account]struct{})
	}
	s.votes[id][voter] = struct{}{}
	record := s.contents[id]
	record.Score += delta
	newScore := record.Score
	flaggedNow := false
	if !record.Flagged && newScore <= s.config.FlagThreshold {
		record.Flagged = true
		flaggedNow = true
	}
	// Append inside the critical section so log order matches mutation
	// order
	if s.config.EventLog != nil {
		cid := id
		s.config.EventLog.Append(
			ScoreUpdatedEventType,
			voter,
			&cid,
			ScoreUpdatedEvent{
				ID:       id,
				Voter:    voter,
				Delta:    delta,
				NewScore: newScore,
			},
		)
		if flaggedNow {
			s.config.EventLog.Append(
				ContentFlaggedEventType,
				"",
				&cid,
				ContentFlaggedEvent{
					ID:    id,
					Score: newScore,
				},
			)
		}
	}
	s.mu.Unlock()
	s.logger.Debug(
		"applied score delta",
		"component", "content",
		"id", id,
		"voter", voter,
		"delta", delta,
		"new_score", newScore,
	)
	if flaggedNow {
		s.metrics.flagged.Inc()
		s.logger.Info(
			"flagged content",
			"component", "content",
			"id", id,
			"score", newScore,
		)
	}
	return newScore, nil
}
