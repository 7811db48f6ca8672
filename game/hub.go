/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscriber event buffer used when none is given.
const DefaultBuffer = 64

// Subscriber is one viewer's private, buffered event feed. The channel is
// closed when the subscriber is removed from the hub, either explicitly or
// because it fell too far behind.
type Subscriber struct {
	ID     string
	events chan Event
}

func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Hub fans published events out to every subscriber, in publish order.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	seq    uint64
	buffer int
	log    zerolog.Logger
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}

	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		log:    log,
	}
}

// Publish stamps each event with the next sequence number and hands it to
// every subscriber without blocking. A subscriber whose buffer is full is
// dropped so that it cannot hold up the game or the other viewers.
func (h *Hub) Publish(events ...Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ev := range events {
		h.seq++
		ev.Seq = h.seq

		for sub := range h.subs {
			select {
			case sub.events <- ev:
			default:
				h.log.Warn().Str("subscriber", sub.ID).Str("event", string(ev.Type)).Msg("subscriber too slow, dropping")
				h.removeLocked(sub)
			}
		}
	}
}

// Subscribe registers a new subscriber. Any events in first are queued ahead
// of everything published afterwards and share the current sequence number.
func (h *Hub) Subscribe(first ...Event) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.buffer
	if len(first) > size {
		size = len(first)
	}

	sub := &Subscriber{
		ID:     uuid.NewString(),
		events: make(chan Event, size),
	}

	for _, ev := range first {
		ev.Seq = h.seq
		sub.events <- ev
	}

	h.subs[sub] = struct{}{}

	h.log.Info().Str("subscriber", sub.ID).Int("subscribers", len(h.subs)).Msg("subscriber attached")

	return sub
}

// Unsubscribe removes sub and closes its channel. Removing a subscriber that
// is already gone does nothing.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}

	h.removeLocked(sub)

	h.log.Info().Str("subscriber", sub.ID).Int("subscribers", len(h.subs)).Msg("subscriber detached")
}

func (h *Hub) removeLocked(sub *Subscriber) {
	delete(h.subs, sub)
	close(sub.events)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Seq returns the sequence number of the last published event.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.seq
}
