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
	"fmt"
	"strings"
	"testing"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/consent"
	"github.com/blinklabs-io/agora/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFlagThreshold = -10

func newTestStore(t *testing.T) (*Store, *consent.Registry, *event.Log) {
	t.Helper()
	eventLog := event.NewLog(event.LogConfig{})
	registry := consent.NewRegistry(consent.RegistryConfig{
		EventLog: eventLog,
	})
	store := NewStore(StoreConfig{
		EventLog:      eventLog,
		Consent:       registry,
		FlagThreshold: testFlagThreshold,
	})
	return store, registry, eventLog
}

func TestCreateRequiresConsent(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.Create("alice", "hello")
	assert.ErrorIs(t, err, consent.ErrRequired)
}

func TestCreateConsentBeforeDataValidation(t *testing.T) {
	store, _, _ := newTestStore(t)
	// Without consent even an invalid payload reports the consent gap
	_, err := store.Create("alice", "")
	assert.ErrorIs(t, err, consent.ErrRequired)
}

func TestCreateInvalidData(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	_, err := store.Create("alice", "")
	assert.ErrorIs(t, err, ErrInvalidContent)
	_, err = store.Create(
		"alice",
		strings.Repeat("x", DefaultMaxDataSize+1),
	)
	assert.ErrorIs(t, err, ErrInvalidContent)
	var sizeErr DataSizeError
	assert.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, DefaultMaxDataSize, sizeErr.Max)
}

func TestCreateAssignsMonotoneIds(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	require.NoError(t, registry.Give("bob"))
	authors := []account.Account{"alice", "bob", "alice", "bob"}
	for i, author := range authors {
		id, err := store.Create(author, "post "+string(author))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), id)
	}
	assert.Equal(t, uint64(len(authors)), store.Count())
}

func TestCreateInitialState(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id, err := store.Create("alice", "hello")
	require.NoError(t, err)
	record, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), record.ID)
	assert.Equal(t, "alice", string(record.Author))
	assert.Equal(t, "hello", record.Data)
	assert.Equal(t, int64(0), record.Score)
	assert.False(t, record.Flagged)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestGetNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.Get(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestByAuthor(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	require.NoError(t, registry.Give("bob"))
	_, err := store.Create("alice", "first")
	require.NoError(t, err)
	_, err = store.Create("bob", "second")
	require.NoError(t, err)
	_, err = store.Create("alice", "third")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, store.ByAuthor("alice"))
	assert.Equal(t, []uint64{1}, store.ByAuthor("bob"))
	assert.Empty(t, store.ByAuthor("carol"))
}

func TestAuthorScore(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id0, err := store.Create("alice", "first")
	require.NoError(t, err)
	id1, err := store.Create("alice", "second")
	require.NoError(t, err)
	_, err = store.ApplyVote(id0, "bob", 4)
	require.NoError(t, err)
	_, err = store.ApplyVote(id1, "bob", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), store.AuthorScore("alice"))
	assert.Equal(t, int64(0), store.AuthorScore("carol"))
}

func TestApplyVoteScore(t *testing.T) {
	store, registry, eventLog := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id, err := store.Create("alice", "hello")
	require.NoError(t, err)
	newScore, err := store.ApplyVote(id, "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), newScore)
	record, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.Score)
	entries := eventLog.Query(event.Filter{
		Kinds: []event.Kind{ScoreUpdatedEventType},
	})
	require.Len(t, entries, 1)
	evt, ok := entries[0].Payload.(ScoreUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(2), evt.Delta)
	assert.Equal(t, int64(2), evt.NewScore)
}

func TestApplyVoteNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.ApplyVote(42, "bob", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyVoteDuplicate(t *testing.T) {
	store, registry, _ := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id, err := store.Create("alice", "hello")
	require.NoError(t, err)
	_, err = store.ApplyVote(id, "bob", 2)
	require.NoError(t, err)
	_, err = store.ApplyVote(id, "bob", -2)
	assert.ErrorIs(t, err, ErrDuplicateVote)
	// The rejected vote must not touch the score
	record, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.Score)
	assert.True(t, store.HasVoted(id, "bob"))
	assert.False(t, store.HasVoted(id, "carol"))
}

func TestFlagOnThresholdCross(t *testing.T) {
	store, registry, eventLog := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id, err := store.Create("alice", "hello")
	require.NoError(t, err)
	// Drive the score to -11 in single steps; the flag flips on the
	// vote that reaches the -10 threshold
	for i := range 11 {
		voter := account.Account(fmt.Sprintf("voter-%d", i))
		_, err := store.ApplyVote(id, voter, -1)
		require.NoError(t, err)
		record, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, record.Score <= testFlagThreshold, record.Flagged)
	}
	entries := eventLog.Query(event.Filter{
		Kinds: []event.Kind{ContentFlaggedEventType},
	})
	require.Len(t, entries, 1)
	evt, ok := entries[0].Payload.(ContentFlaggedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(-10), evt.Score)
}

func TestFlagSticky(t *testing.T) {
	store, registry, eventLog := newTestStore(t)
	require.NoError(t, registry.Give("alice"))
	id, err := store.Create("alice", "hello")
	require.NoError(t, err)
	_, err = store.ApplyVote(id, "bob", -11)
	require.NoError(t, err)
	record, err := store.Get(id)
	require.NoError(t, err)
	require.True(t, record.Flagged)
	// Score recovery above the threshold never clears the flag
	newScore, err := store.ApplyVote(id, "carol", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-9), newScore)
	record, err = store.Get(id)
	require.NoError(t, err)
	assert.True(t, record.Flagged)
	// No second flag event is emitted
	entries := eventLog.Query(event.Filter{
		Kinds: []event.Kind{ContentFlaggedEventType},
	})
	assert.Len(t, entries, 1)
}
