// Package notify bridges database change notifications to cache
// invalidation. Events are queued onto a channel and handled by a single
// worker, so producers never touch resolver state directly.
package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Op is the kind of row change an event describes.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is one change notification as delivered by the database listener.
type Event struct {
	Table string
	Op    Op
	Row   map[string]any
}

// CacheInvalidator is the subset of the capability resolver the worker needs.
type CacheInvalidator interface {
	Invalidate(subjectID string)
	InvalidateAll()
}

// Broker receives change events and translates them into capability-cache
// invalidations. A profile row change evicts that subject only; a role table
// change evicts everything, since any cached set may now be stale.
type Broker struct {
	events chan Event
	cache  CacheInvalidator
	logger *zap.Logger

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}

	onFlush func(table string)
}

// NewBroker creates a broker with the given queue capacity. logger may be
// nil.
func NewBroker(cache CacheInvalidator, buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		events: make(chan Event, buffer),
		cache:  cache,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// WithFlushObserver registers a hook invoked whenever a full cache flush
// happens, keyed by the table that triggered it. Must be called before Start.
func (b *Broker) WithFlushObserver(onFlush func(table string)) *Broker {
	b.onFlush = onFlush
	return b
}

// Start launches the worker. It returns immediately; the worker runs until
// the context is cancelled or Close is called.
func (b *Broker) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go func() {
			defer close(b.done)
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-b.events:
					if !ok {
						return
					}
					b.handle(event)
				}
			}
		}()
	})
}

// Publish enqueues an event without blocking. When the queue is full the
// event is dropped and reported; a dropped invalidation only delays eviction
// until the cache TTL expires.
func (b *Broker) Publish(event Event) bool {
	select {
	case b.events <- event:
		return true
	default:
		b.logger.Warn("change notification dropped",
			zap.String("table", event.Table),
			zap.String("op", string(event.Op)),
		)
		return false
	}
}

// Close stops accepting events and waits for the worker to drain the queue.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.events) })
	<-b.done
}

func (b *Broker) handle(event Event) {
	switch event.Table {
	case "user_profiles":
		subjectID := rowString(event.Row, "id")
		if subjectID == "" {
			b.logger.Warn("profile change without id, evicting all",
				zap.String("op", string(event.Op)))
			b.flushAll(event.Table)
			return
		}
		b.cache.Invalidate(subjectID)
		b.logger.Debug("capability cache evicted",
			zap.String("subject_id", subjectID),
			zap.String("op", string(event.Op)),
		)
	case "roles", "workflow_transitions":
		// Reference data changed: every cached capability set is suspect.
		b.flushAll(event.Table)
		b.logger.Info("reference table changed, capability cache flushed",
			zap.String("table", event.Table),
			zap.String("op", string(event.Op)),
		)
	default:
		// Tables the engine does not derive authorization from.
	}
}

func (b *Broker) flushAll(table string) {
	b.cache.InvalidateAll()
	if b.onFlush != nil {
		b.onFlush(table)
	}
}

func rowString(row map[string]any, key string) string {
	if row == nil {
		return ""
	}
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
