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
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/agora"
	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/blinklabs-io/agora/voting"
	"github.com/spf13/cobra"
)

var replayFlags = struct {
	input      string
	dumpEvents bool
}{}

// replayCmd reads a JSONL command stream, applies it to a fresh ledger,
// and writes one JSON result per command to stdout
type replayCmd struct {
	Op        string `json:"op"`
	Account   string `json:"account"`
	Data      string `json:"data,omitempty"`
	ContentID uint64 `json:"contentId,omitempty"`
	Upvote    bool   `json:"upvote,omitempty"`
	Delta     int64  `json:"delta,omitempty"`
}

type replayResult struct {
	Error string `json:"error,omitempty"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
	Line  int    `json:"line"`
}

func replayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a JSONL command stream to a fresh ledger",
		Long: `Reads ledger commands as JSON lines and applies them in order.
Supported ops: give-consent, withdraw-consent, create-content, vote,
adjust-reputation. Results are written as JSON lines to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commonRun()
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ledger, err := agora.New(agora.NewConfig(
				agora.WithLogger(logger),
				agora.WithFlagThreshold(cfg.FlagThreshold),
				agora.WithRequiredReputationToVote(cfg.RequiredReputation),
				agora.WithVoteWeightFunc(voting.FixedWeight(cfg.VoteWeight)),
				agora.WithVoterReward(cfg.VoterReward),
				agora.WithMaxContentSize(cfg.MaxContentSize),
			))
			if err != nil {
				return fmt.Errorf("failed to create ledger: %w", err)
			}
			defer ledger.Stop()
			input := os.Stdin
			if replayFlags.input != "" && replayFlags.input != "-" {
				f, err := os.Open(replayFlags.input)
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				input = f
			}
			return runReplay(ledger, input, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(
		&replayFlags.input,
		"input",
		"i",
		"-",
		"command stream file ('-' for stdin)",
	)
	cmd.Flags().BoolVar(
		&replayFlags.dumpEvents,
		"events",
		false,
		"dump the full event log after replay",
	)
	return cmd
}

func runReplay(ledger *agora.Ledger, input io.Reader, output io.Writer) error {
	enc := json.NewEncoder(output)
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var cmd replayCmd
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return fmt.Errorf("line %d: malformed command: %w", line, err)
		}
		result := replayResult{
			Line: line,
			Op:   cmd.Op,
		}
		value, err := applyCommand(ledger, cmd)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Value = value
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read command stream: %w", err)
	}
	if replayFlags.dumpEvents {
		for _, entry := range ledger.QueryEvents(event.Filter{}) {
			if err := enc.Encode(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyCommand(ledger *agora.Ledger, cmd replayCmd) (any, error) {
	acct := account.Account(cmd.Account)
	switch cmd.Op {
	case "give-consent":
		return nil, ledger.GiveConsent(acct)
	case "withdraw-consent":
		return nil, ledger.WithdrawConsent(acct)
	case "create-content":
		return ledger.CreateContent(acct, cmd.Data)
	case "vote":
		return ledger.Vote(cmd.ContentID, acct, cmd.Upvote)
	case "adjust-reputation":
		return ledger.AdjustReputationAdmin(acct, cmd.Delta)
	default:
		return nil, fmt.Errorf("unknown op: %q", cmd.Op)
	}
}
