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

import "errors"

// Account is an opaque, address-like identifier for a participant.
// Callers are assumed to have already authenticated the identity behind
// the identifier; this package only checks its shape.
type Account string

// MaxLength is the maximum accepted identifier length in bytes
const MaxLength = 128

var ErrInvalid = errors.New("invalid account identifier")

// Valid returns true if the identifier is non-empty, within the length
// limit, and contains only printable non-whitespace ASCII
func (a Account) Valid() bool {
	if len(a) == 0 || len(a) > MaxLength {
		return false
	}
	for i := range len(a) {
		c := a[i]
		if c <= 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}

// Validate returns ErrInvalid if the identifier is malformed
func Validate(a Account) error {
	if !a.Valid() {
		return ErrInvalid
	}
	return nil
}
