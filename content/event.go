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
	"github.com/blinklabs-io/agora/account"
	"github.com/blinklabs-io/agora/event"
)

const (
	ContentCreatedEventType event.Kind = "content.created"
	ScoreUpdatedEventType   event.Kind = "content.score-updated"
	ContentFlaggedEventType event.Kind = "content.flagged"
)

type ContentCreatedEvent struct {
	ID     uint64          `json:"id"`
	Author account.Account `json:"author"`
	Data   string          `json:"data"`
}

type ScoreUpdatedEvent struct {
	ID       uint64          `json:"id"`
	Voter    account.Account `json:"voter"`
	Delta    int64           `json:"delta"`
	NewScore int64           `json:"newScore"`
}

// ContentFlaggedEvent is emitted at most once per content record, on the
// score update that first crosses the flag threshold
type ContentFlaggedEvent struct {
	ID    uint64 `json:"id"`
	Score int64  `json:"score"`
}
