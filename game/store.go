/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"sync"

	"github.com/Seednode/meetquiz/levels"
)

// Store owns all mutable game data. Every method is atomic with respect to
// every other, and nothing it returns aliases its internal state.
type Store struct {
	mu sync.RWMutex

	status  Status
	level   levels.Level
	players map[string]*Player
	order   []string
	queue   []Guess
	history []Message
	seen    map[string]struct{}
}

func NewStore(first levels.Level) *Store {
	return &Store{
		status:  StatusActive,
		level:   first,
		players: make(map[string]*Player),
		seen:    make(map[string]struct{}),
	}
}

func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

func (s *Store) SetLevel(l levels.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = l
}

func (s *Store) Level() levels.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.level
}

// AddPlayer creates an alive player and reports whether the name was new.
func (s *Store) AddPlayer(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[name]; ok {
		return false
	}

	s.players[name] = &Player{Name: name, Alive: true}
	s.order = append(s.order, name)

	return true
}

func (s *Store) RemovePlayer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[name]; !ok {
		return
	}

	delete(s.players, name)

	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// UpdatePlayer merges the supplied fields into an existing player. Unknown
// names are ignored.
func (s *Store) UpdatePlayer(name string, u PlayerUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[name]
	if !ok {
		return
	}

	if u.Alive != nil {
		p.Alive = *u.Alive
	}
}

// ReviveAll marks every known player alive.
func (s *Store) ReviveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		p.Alive = true
	}
}

func (s *Store) Player(name string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[name]
	if !ok {
		return Player{}, false
	}

	return *p, true
}

func (s *Store) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.playersLocked()
}

func (s *Store) playersLocked() []Player {
	out := make([]Player, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.players[name])
	}

	return out
}

// Enqueue appends a guess and returns the resulting queue.
func (s *Store) Enqueue(g Guess) []Guess {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, g)

	return s.queueLocked()
}

func (s *Store) Front() (Guess, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.queue) == 0 {
		return Guess{}, false
	}

	return s.queue[0], true
}

// PopFront removes the first guess and returns what is left.
func (s *Store) PopFront() []Guess {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 {
		s.queue = s.queue[1:]
	}

	return s.queueLocked()
}

func (s *Store) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = nil
}

func (s *Store) Queue() []Guess {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queueLocked()
}

func (s *Store) queueLocked() []Guess {
	out := make([]Guess, len(s.queue))
	copy(out, s.queue)

	return out
}

// AppendMessages adds lines to the history unconditionally.
func (s *Store) AppendMessages(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		s.history = append(s.history, m)
		s.seen[m.key()] = struct{}{}
	}
}

// Observe records the lines that have never been seen before, in order, and
// returns them. A line repeated inside msgs is only returned once.
func (s *Store) Observe(msgs []Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []Message
	for _, m := range msgs {
		k := m.key()
		if _, ok := s.seen[k]; ok {
			continue
		}

		s.seen[k] = struct{}{}
		s.history = append(s.history, m)
		fresh = append(fresh, m)
	}

	return fresh
}

func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.history))
	copy(out, s.history)

	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Status:  s.status,
		Level:   s.level,
		Players: s.playersLocked(),
		Queue:   s.queueLocked(),
	}
}
