// Package events appends committed ledger events to a Redis stream, the feed the
// off-chain operator consumes.
package events

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facility/internal/db"
	"github.com/kailas-cloud/facility/internal/domain/event"
)

// store is the consumer interface for the event stream (ISP).
type store interface {
	XAddMulti(ctx context.Context, stream string, maxLen int64, entries []db.StreamEntry) ([]string, error)
}

// Counter observes published events.
type Counter interface {
	RecordEvent(kind string)
}

// Publisher implements usecase/ledger.EventPublisher.
type Publisher struct {
	store   store
	stream  string
	maxLen  int64
	counter Counter
}

// New creates a stream publisher. maxLen <= 0 leaves the stream uncapped.
func New(s store, stream string, maxLen int64) *Publisher {
	return &Publisher{store: s, stream: stream, maxLen: maxLen}
}

// WithCounter attaches an event counter.
func (p *Publisher) WithCounter(c Counter) *Publisher {
	p.counter = c
	return p
}

// Publish appends events in sequence order.
func (p *Publisher) Publish(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]db.StreamEntry, len(events))
	for i, e := range events {
		entries[i] = db.StreamEntry{Fields: e.Fields()}
	}

	ids, err := p.store.XAddMulti(ctx, p.stream, p.maxLen, entries)
	appended := 0
	for i, id := range ids {
		if id == "" || i >= len(events) {
			continue
		}
		appended++
		if p.counter != nil {
			p.counter.RecordEvent(string(events[i].Kind))
		}
	}
	if err != nil {
		return fmt.Errorf("xadd %s (%d/%d appended): %w", p.stream, appended, len(events), err)
	}
	return nil
}
