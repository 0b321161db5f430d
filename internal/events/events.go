// Package events implements the in-process event bus that delivers captured callbacks to the host.
//
// [Bus] satisfies the "publish named event with payload" capability the listener needs: each
// [Bus.Emit] is fanned out to the subscribers registered for that name. Delivery never blocks
// the publisher; a subscriber whose buffer is full misses the event and Emit reports it.
package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/oauthcap/internal/shared"
)

// ErrNoSubscribers is returned by Emit when nobody listens for the event name.
var ErrNoSubscribers = errors.New("no subscribers")

// ErrDropped is returned by Emit when at least one subscriber buffer was full.
var ErrDropped = errors.New("event dropped")

// Event is a published event as seen by subscribers.
type Event struct {
	ID      string
	Name    string
	Payload any
	At      time.Time
}

type subscriber struct {
	id string
	ch chan Event
}

// Bus is a named publish/subscribe hub. The zero value is ready to use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscriber
}

// NewBus creates an empty [Bus].
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Subscribe registers interest in name.
//
// The returned channel receives events until the cancel func is called, which also closes it.
func (b *Bus) Subscribe(name string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	s := subscriber{id: shared.GenerateID(), ch: make(chan Event, buffer)}

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string][]subscriber)
	}
	b.subs[name] = append(b.subs[name], s)
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() { b.unsubscribe(name, s.id) })
	}
}

func (b *Bus) unsubscribe(name, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			close(s.ch)
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Emit delivers payload to every subscriber of name without blocking.
func (b *Bus) Emit(name string, payload any) error {
	ev := Event{ID: shared.GenerateID(), Name: name, Payload: payload, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[name]
	if len(subs) == 0 {
		return fmt.Errorf("%w for %q", ErrNoSubscribers, name)
	}

	dropped := 0
	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %q missed by %d of %d subscribers", ErrDropped, name, dropped, len(subs))
	}
	return nil
}

// subscribers reports how many subscribers name currently has.
func (b *Bus) subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
