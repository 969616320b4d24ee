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

package account

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		acct  Account
		valid bool
	}{
		{"address-like", "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", true},
		{"simple name", "alice", true},
		{"single char", "a", true},
		{"max length", Account(strings.Repeat("a", MaxLength)), true},
		{"empty", "", false},
		{"too long", Account(strings.Repeat("a", MaxLength+1)), false},
		{"embedded space", "alice smith", false},
		{"leading space", " alice", false},
		{"control char", "alice\n", false},
		{"non-ascii", "ålice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.acct.Valid())
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("alice"))
	assert.ErrorIs(t, Validate(""), ErrInvalid)
}
