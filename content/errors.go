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
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("content not found")
	ErrInvalidContent = errors.New("invalid content data")
	ErrDuplicateVote  = errors.New("duplicate vote for content")
)

// DataSizeError reports an oversized content payload. It matches
// ErrInvalidContent under errors.Is.
type DataSizeError struct {
	Size int
	Max  int
}

func (e DataSizeError) Error() string {
	return fmt.Sprintf(
		"invalid content data: size %d exceeds maximum %d",
		e.Size,
		e.Max,
	)
}

func (e DataSizeError) Is(target error) bool {
	return target == ErrInvalidContent
}
