// Package events provides the in-process fanout used to push progress to
// API consumers. Publishing never blocks: a subscriber that stops draining
// its channel loses events instead of stalling the producers.
package events

import (
	"sync"

	"github.com/vidsink/vidsink/internal/constants"
)

type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload"`
}

type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func is idempotent and
// closes the channel so range loops terminate.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, constants.EventBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

func (b *Bus) Publish(name string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	ev := Event{Name: name, Payload: payload}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; drop rather than block.
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
