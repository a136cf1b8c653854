// SPDX-License-Identifier: MIT

// Package events is a synchronous, single-threaded publish/subscribe bus.
//
// Each event type gets its own Observable[E]; handlers are plain typed
// closures invoked in registration order with the event by value. Publishing
// while the bus is already delivering (from a handler, or inside Batch)
// appends to a FIFO queue that the outermost call drains before returning,
// so re-entrant publishing is safe and observes a fixed order. The bus does
// not deduplicate events.
//
// Handler failures never stop delivery to the remaining handlers: errors and
// recovered panics are logged and joined into the error returned by the
// outermost Publish or Batch.
package events

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Bus serializes delivery for every Observable attached to it.
// A Bus is not safe for concurrent use.
type Bus struct {
	logger hclog.Logger
	queue  []delivery
	depth  int
	errs   *multierror.Error
}

type delivery struct {
	topic string
	run   func() []error
}

// NewBus returns an idle bus. A nil logger discards output.
func NewBus(logger hclog.Logger) *Bus {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Bus{logger: logger}
}

// Busy reports whether the bus is delivering or inside a Batch.
func (b *Bus) Busy() bool { return b.depth > 0 }

// Pending returns the number of queued deliveries.
func (b *Bus) Pending() int { return len(b.queue) }

// Batch runs fn with delivery deferred: everything published inside fn is
// queued and drained once fn returns. Nested batches drain with the outermost.
// The returned error joins fn's error with any handler errors.
func (b *Bus) Batch(fn func() error) error {
	b.depth++
	err := fn()
	if err != nil {
		b.errs = multierror.Append(b.errs, err)
	}
	b.depth--

	return b.flush()
}

func (b *Bus) enqueue(d delivery) error {
	b.queue = append(b.queue, d)

	return b.flush()
}

// flush drains the queue when no outer call owns it.
func (b *Bus) flush() error {
	if b.depth > 0 {
		return nil
	}
	b.depth++
	for len(b.queue) > 0 {
		d := b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		for _, err := range d.run() {
			b.logger.Error("event handler failed", "event", d.topic, "error", err)
			b.errs = multierror.Append(b.errs, err)
		}
	}
	b.queue = nil
	b.depth--

	errs := b.errs
	b.errs = nil

	return errs.ErrorOrNil()
}

// Observable is the per-event-type subscriber list.
type Observable[E any] struct {
	bus      *Bus
	name     string
	nextID   int
	handlers []subscription[E]
}

type subscription[E any] struct {
	id int
	fn func(E) error
}

// NewObservable attaches a new event type called name to bus.
func NewObservable[E any](bus *Bus, name string) *Observable[E] {
	return &Observable[E]{bus: bus, name: name}
}

// Name returns the event type name used in logs.
func (o *Observable[E]) Name() string { return o.name }

// Len returns the number of subscribers.
func (o *Observable[E]) Len() int { return len(o.handlers) }

// Subscribe registers fn and returns a function that removes it.
func (o *Observable[E]) Subscribe(fn func(E) error) (unsubscribe func()) {
	o.nextID++
	id := o.nextID
	o.handlers = append(o.handlers, subscription[E]{id: id, fn: fn})

	return func() {
		for i, s := range o.handlers {
			if s.id == id {
				o.handlers = append(o.handlers[:i:i], o.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to a snapshot of the current subscribers, in
// registration order. When called from a handler or a Batch it only queues
// e and returns nil; the outer call reports the errors.
func (o *Observable[E]) Publish(e E) error {
	subs := append([]subscription[E](nil), o.handlers...)
	name := o.name

	return o.bus.enqueue(delivery{topic: name, run: func() []error {
		var errs []error
		for _, s := range subs {
			if err := call(name, s.fn, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errs
	}})
}

func call[E any](name string, fn func(E) error, e E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("events: %s handler panicked: %v", name, r)
		}
	}()

	return fn(e)
}
