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
	"context"
	"errors"
)

var (
	// ErrIteratorLogTip is returned by a non-blocking Next when the
	// iterator has consumed every matching entry currently in the log
	ErrIteratorLogTip = errors.New("log iterator is at log tip")
	// ErrIteratorDone is returned when the iterator has passed the
	// filter's upper sequence bound and can never match again
	ErrIteratorDone = errors.New("log iterator is exhausted")
)

// LogIterator is a restartable pull cursor over log entries matching a
// filter, in sequence order. Iterators are cheap; consumers that restart
// simply create a new iterator with the same filter.
type LogIterator struct {
	log     *Log
	filter  Filter
	nextSeq uint64
}

// Iterator returns a new iterator positioned at the filter's MinSeq
func (l *Log) Iterator(filter Filter) *LogIterator {
	return &LogIterator{
		log:     l,
		filter:  filter,
		nextSeq: filter.MinSeq,
	}
}

// Next returns the next matching entry. When no matching entry exists
// yet, blocking determines whether Next waits for one to be appended or
// returns ErrIteratorLogTip immediately.
func (i *LogIterator) Next(
	ctx context.Context,
	blocking bool,
) (*Entry, error) {
	for {
		i.log.mu.RLock()
		for i.nextSeq < uint64(len(i.log.entries)) {
			if i.filter.MaxSeq != nil && i.nextSeq > *i.filter.MaxSeq {
				i.log.mu.RUnlock()
				return nil, ErrIteratorDone
			}
			entry := i.log.entries[i.nextSeq]
			i.nextSeq++
			if i.filter.Match(entry) {
				i.log.mu.RUnlock()
				return &entry, nil
			}
		}
		if i.filter.MaxSeq != nil && i.nextSeq > *i.filter.MaxSeq {
			i.log.mu.RUnlock()
			return nil, ErrIteratorDone
		}
		notify := i.log.notify
		i.log.mu.RUnlock()
		if !blocking {
			return nil, ErrIteratorLogTip
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-notify:
		}
	}
}
