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
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SubscriberQueueSize = 20
	AsyncQueueSize      = 1000
	AsyncWorkerPoolSize = 4
)

// Kind identifies the type of a ledger event
type Kind string

type SubscriberId int

type HandlerFunc func(Entry)

// Bus distributes log entries to in-process subscribers. It exists for
// live consumers (activity feeds) that want push delivery instead of
// polling the Log.
type Bus struct {
	subscribers map[Kind]map[SubscriberId]chan Entry
	lastSubId   SubscriberId
	logger      *slog.Logger
	metrics     *busMetrics
	mu          sync.RWMutex

	asyncQueue chan Entry
	asyncWg    sync.WaitGroup
	stopCh     chan struct{}
	stopped    bool
	stopMu     sync.Mutex
}

// NewBus creates a Bus and starts its async delivery workers
func NewBus(promRegistry prometheus.Registerer, logger *slog.Logger) *Bus {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	b := &Bus{
		subscribers: make(map[Kind]map[SubscriberId]chan Entry),
		logger:      logger,
		asyncQueue:  make(chan Entry, AsyncQueueSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		b.metrics = newBusMetrics(promRegistry)
	}
	for range AsyncWorkerPoolSize {
		b.asyncWg.Add(1)
		go b.asyncWorker()
	}
	return b
}

func (b *Bus) asyncWorker() {
	defer b.asyncWg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case entry, ok := <-b.asyncQueue:
			if !ok {
				return
			}
			b.Publish(entry)
		}
	}
}

// Subscribe registers for entries of a particular kind and returns a
// channel the entries are delivered on
func (b *Bus) Subscribe(kind Kind) (SubscriberId, <-chan Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subId := b.lastSubId + 1
	b.lastSubId = subId
	if _, ok := b.subscribers[kind]; !ok {
		b.subscribers[kind] = make(map[SubscriberId]chan Entry)
	}
	ch := make(chan Entry, SubscriberQueueSize)
	b.subscribers[kind][subId] = ch
	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(string(kind)).Inc()
	}
	return subId, ch
}

// SubscribeFunc registers a callback for entries of a particular kind
func (b *Bus) SubscribeFunc(kind Kind, handlerFunc HandlerFunc) SubscriberId {
	subId, ch := b.Subscribe(kind)
	go func(ch <-chan Entry) {
		for {
			entry, ok := <-ch
			if !ok {
				return
			}
			handlerFunc(entry)
		}
	}(ch)
	return subId
}

// Unsubscribe stops delivery for an existing subscriber and closes its
// channel so SubscribeFunc goroutines exit
func (b *Bus) Unsubscribe(kind Kind, subId SubscriberId) {
	b.mu.Lock()
	var chToClose chan Entry
	if kindSubs, ok := b.subscribers[kind]; ok {
		if ch, ok2 := kindSubs[subId]; ok2 {
			chToClose = ch
			delete(kindSubs, subId)
			if len(kindSubs) == 0 {
				delete(b.subscribers, kind)
			}
			if b.metrics != nil {
				b.metrics.subscribers.WithLabelValues(string(kind)).Dec()
			}
		}
	}
	b.mu.Unlock()
	if chToClose != nil {
		close(chToClose)
	}
}

// Publish delivers an entry to all subscribers for its kind. Delivery
// blocks when a subscriber queue is full, preserving entry order per
// subscriber.
func (b *Bus) Publish(entry Entry) {
	// Gather channels under the read lock, send outside it
	b.mu.RLock()
	subs := b.subscribers[entry.Kind]
	chans := make([]chan Entry, 0, len(subs))
	for _, ch := range subs {
		chans = append(chans, ch)
	}
	b.mu.RUnlock()
	for _, ch := range chans {
		func() {
			// A concurrent Unsubscribe may have closed the channel
			defer func() {
				if r := recover(); r != nil {
					b.logger.Debug(
						"dropped entry for closed subscriber",
						"component", "eventbus",
						"kind", entry.Kind,
					)
				}
			}()
			ch <- entry
		}()
	}
	if b.metrics != nil {
		b.metrics.published.WithLabelValues(string(entry.Kind)).Inc()
	}
}

// PublishAsync enqueues an entry for delivery by the worker pool and
// returns immediately. Returns false if the bus is stopped or the queue
// is full.
func (b *Bus) PublishAsync(entry Entry) bool {
	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return false
	}
	b.stopMu.Unlock()
	select {
	case b.asyncQueue <- entry:
		return true
	default:
		b.logger.Warn(
			"async queue full, dropping entry",
			"component", "eventbus",
			"kind", entry.Kind,
		)
		if b.metrics != nil {
			b.metrics.dropped.WithLabelValues(string(entry.Kind)).Inc()
		}
		return false
	}
}

// Stop shuts down the async workers and closes all subscriber channels.
// The bus cannot be reused afterward.
func (b *Bus) Stop() {
	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return
	}
	b.stopped = true
	b.stopMu.Unlock()
	close(b.stopCh)
	b.asyncWg.Wait()
	b.mu.Lock()
	subsCopy := b.subscribers
	b.subscribers = make(map[Kind]map[SubscriberId]chan Entry)
	b.mu.Unlock()
	for _, kindSubs := range subsCopy {
		for _, ch := range kindSubs {
			close(ch)
		}
	}
	if b.metrics != nil {
		b.metrics.subscribers.Reset()
	}
}
