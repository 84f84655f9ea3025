// Package bus fans decoded responses out to in-process subscribers.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/pithecene-io/wearlink/types"
)

// ErrAwaitTimeout is returned by Await when the context ends first.
var ErrAwaitTimeout = errors.New("bus: timed out waiting for response")

// ErrClosed is returned by Await on a closed broker.
var ErrClosed = errors.New("bus: broker closed")

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Filter selects responses for a subscriber.
type Filter func(types.Response) bool

// All matches every response.
func All() Filter {
	return func(types.Response) bool { return true }
}

// ByRequestID matches responses correlated with id.
func ByRequestID(id string) Filter {
	return func(r types.Response) bool { return r.RequestID == id }
}

// ByAction matches responses for action.
func ByAction(action types.ActionKind) Filter {
	return func(r types.Response) bool { return r.Action == action }
}

// And matches when every filter matches.
func And(filters ...Filter) Filter {
	return func(r types.Response) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

type subscriber struct {
	filter Filter
	ch     chan types.Response
}

// Broker is a publish/subscribe hub. Publish never blocks: a subscriber with
// a full buffer misses the response.
type Broker struct {
	mu      sync.Mutex
	subs    map[uint64]*subscriber
	nextID  uint64
	buffer  int
	closed  bool
	dropped uint64
}

// NewBroker creates a broker with DefaultBuffer per subscriber.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*subscriber), buffer: DefaultBuffer}
}

// Subscribe registers a subscriber. cancel unregisters it and closes the
// channel; it is safe to call more than once.
func (b *Broker) Subscribe(filter Filter) (<-chan types.Response, func()) {
	if filter == nil {
		filter = All()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.Response, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{filter: filter, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers resp to every matching subscriber.
func (b *Broker) Publish(resp types.Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if !sub.filter(resp) {
			continue
		}
		select {
		case sub.ch <- resp:
		default:
			b.dropped++
		}
	}
}

// Await subscribes and waits for the first response matching filter.
// When the response can be published during the caller's send, subscribe
// first with Waiter.
func (b *Broker) Await(ctx context.Context, filter Filter) (types.Response, error) {
	return b.Waiter(filter).Wait(ctx)
}

// Waiter subscribes immediately and returns a handle to wait on later.
// Use it when the response may arrive as a side effect of the send itself.
func (b *Broker) Waiter(filter Filter) *Waiter {
	ch, cancel := b.Subscribe(filter)
	return &Waiter{ch: ch, cancel: cancel}
}

// Dropped returns how many deliveries were lost to full buffers.
func (b *Broker) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Waiter is a one-shot subscription.
type Waiter struct {
	ch     <-chan types.Response
	cancel func()
}

// Wait blocks until a response arrives or ctx ends, then unsubscribes.
func (w *Waiter) Wait(ctx context.Context) (types.Response, error) {
	defer w.cancel()
	select {
	case resp, ok := <-w.ch:
		if !ok {
			return types.Response{}, ErrClosed
		}
		return resp, nil
	case <-ctx.Done():
		return types.Response{}, ErrAwaitTimeout
	}
}

// Cancel unsubscribes without waiting.
func (w *Waiter) Cancel() {
	w.cancel()
}
