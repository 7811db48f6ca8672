/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"sync"

	"github.com/Seednode/meetquiz/levels"
)

// Session ties the store to the hub. Every change that viewers hear about
// goes through Do, which applies the change and publishes its events as a
// single step; Attach takes its snapshot under the same lock, so a new viewer
// sees each change exactly once, either folded into its snapshot or as a
// live event after it.
type Session struct {
	mu      sync.Mutex
	store   *Store
	hub     *Hub
	catalog *levels.Catalog
}

// NewSession starts a game on the first level of catalog.
func NewSession(catalog *levels.Catalog, hub *Hub) *Session {
	first, _ := catalog.Get(1)

	return &Session{
		store:   NewStore(first),
		hub:     hub,
		catalog: catalog,
	}
}

func (s *Session) Store() *Store {
	return s.store
}

func (s *Session) Hub() *Hub {
	return s.hub
}

func (s *Session) Catalog() *levels.Catalog {
	return s.catalog
}

// Do runs fn against the store and publishes the events it returns, with no
// other step or attach interleaved. fn must not block.
func (s *Session) Do(fn func(st *Store) []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if events := fn(s.store); len(events) > 0 {
		s.hub.Publish(events...)
	}
}

// Attach subscribes a viewer whose first event is a game-state snapshot.
func (s *Session) Attach() *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hub.Subscribe(GameState(s.store.Snapshot()))
}

func (s *Session) Detach(sub *Subscriber) {
	s.hub.Unsubscribe(sub)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Snapshot()
}
