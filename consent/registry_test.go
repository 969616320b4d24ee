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
	"testing"

	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *event.Log) {
	t.Helper()
	eventLog := event.NewLog(event.LogConfig{})
	return NewRegistry(RegistryConfig{
		EventLog: eventLog,
	}), eventLog
}

func TestCheckDefaultsFalse(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.False(t, r.Check("alice"))
	assert.False(t, r.Check(""))
}

func TestGiveWithdraw(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Give("alice"))
	assert.True(t, r.Check("alice"))
	require.NoError(t, r.Withdraw("alice"))
	assert.False(t, r.Check("alice"))
}

func TestGiveIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Give("alice"))
	require.NoError(t, r.Give("alice"))
	assert.True(t, r.Check("alice"))
}

func TestWithdrawIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	// Withdrawing consent that was never given is a valid no-op
	require.NoError(t, r.Withdraw("alice"))
	require.NoError(t, r.Withdraw("alice"))
	assert.False(t, r.Check("alice"))
}

func TestInvalidAccount(t *testing.T) {
	r, eventLog := newTestRegistry(t)
	assert.ErrorIs(t, r.Give(""), account.ErrInvalid)
	assert.ErrorIs(t, r.Withdraw("has space"), account.ErrInvalid)
	// Rejected commands leave no trace in the log
	assert.Equal(t, uint64(0), eventLog.Len())
}

func TestConsentEvents(t *testing.T) {
	r, eventLog := newTestRegistry(t)
	require.NoError(t, r.Give("alice"))
	require.NoError(t, r.Withdraw("alice"))
	entries := eventLog.Query(event.Filter{
		Kinds: []event.Kind{ConsentChangedEventType},
	})
	require.Len(t, entries, 2)
	first, ok := entries[0].Payload.(ConsentChangedEvent)
	require.True(t, ok)
	assert.Equal(t, account.Account("alice"), first.Account)
	assert.True(t, first.Granted)
	second, ok := entries[1].Payload.(ConsentChangedEvent)
	require.True(t, ok)
	assert.False(t, second.Granted)
}
