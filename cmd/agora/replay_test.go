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

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/agora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReplayLedger(t *testing.T) *agora.Ledger {
	t.Helper()
	ledger, err := agora.New(agora.NewConfig())
	require.NoError(t, err)
	t.Cleanup(ledger.Stop)
	return ledger
}

func decodeResults(t *testing.T, output *bytes.Buffer) []replayResult {
	t.Helper()
	var results []replayResult
	dec := json.NewDecoder(output)
	for dec.More() {
		var result replayResult
		require.NoError(t, dec.Decode(&result))
		results = append(results, result)
	}
	return results
}

func TestRunReplay(t *testing.T) {
	ledger := newReplayLedger(t)
	input := strings.Join(
		[]string{
			`{"op": "give-consent", "account": "alice"}`,
			`{"op": "create-content", "account": "alice", "data": "hello"}`,
			`{"op": "adjust-reputation", "account": "bob", "delta": 20}`,
			`{"op": "give-consent", "account": "bob"}`,
			`{"op": "vote", "account": "bob", "contentId": 0, "upvote": true}`,
		},
		"\n",
	)
	var output bytes.Buffer
	err := runReplay(ledger, strings.NewReader(input), &output)
	require.NoError(t, err)

	results := decodeResults(t, &output)
	require.Len(t, results, 5)
	for i, result := range results {
		assert.Empty(t, result.Error, "line %d", result.Line)
		assert.Equal(t, i+1, result.Line)
	}
	// create-content reports the new id, vote the new score
	assert.Equal(t, float64(0), results[1].Value)
	assert.Equal(t, float64(2), results[4].Value)

	record, err := ledger.GetContent(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.Score)
	assert.Equal(t, int64(22), ledger.GetReputation("bob"))
}

func TestRunReplayCommandErrors(t *testing.T) {
	ledger := newReplayLedger(t)
	input := strings.Join(
		[]string{
			`{"op": "create-content", "account": "alice", "data": "x"}`,
			`{"op": "give-consent", "account": "alice"}`,
			`{"op": "vote", "account": "alice", "contentId": 7}`,
			`{"op": "frobnicate", "account": "alice"}`,
		},
		"\n",
	)
	var output bytes.Buffer
	err := runReplay(ledger, strings.NewReader(input), &output)
	require.NoError(t, err)

	// Rejected commands produce a result line, not a stream failure
	results := decodeResults(t, &output)
	require.Len(t, results, 4)
	assert.Contains(t, results[0].Error, "consent")
	assert.Empty(t, results[1].Error)
	assert.Contains(t, results[2].Error, "reputation")
	assert.Contains(t, results[3].Error, "unknown op")
}

func TestRunReplayMalformedLine(t *testing.T) {
	ledger := newReplayLedger(t)
	input := "{\"op\": \"give-consent\", \"account\": \"alice\"}\nnot json\n"
	var output bytes.Buffer
	err := runReplay(ledger, strings.NewReader(input), &output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	// The first command was applied before the failure
	assert.True(t, ledger.CheckConsent("alice"))
}

func TestRunReplaySkipsBlankLines(t *testing.T) {
	ledger := newReplayLedger(t)
	input := "\n{\"op\": \"give-consent\", \"account\": \"alice\"}\n\n"
	var output bytes.Buffer
	err := runReplay(ledger, strings.NewReader(input), &output)
	require.NoError(t, err)
	results := decodeResults(t, &output)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Line)
}

func TestApplyCommandUnknownOp(t *testing.T) {
	ledger := newReplayLedger(t)
	_, err := applyCommand(ledger, replayCmd{Op: "nope"})
	require.Error(t, err)
}
