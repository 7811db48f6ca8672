/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Seednode/meetquiz/levels"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(sub *Subscriber) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}

	return out
}

func TestHubFanOutOrder(t *testing.T) {
	h := NewHub(16, zerolog.Nop())

	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Count())
	assert.NotEqual(t, a.ID, b.ID)

	h.Publish(playerJoined("alice"), newMessage(Message{Sender: "alice", Text: "hi"}))
	h.Publish(startJudging("alice"))

	ea, eb := drain(a), drain(b)
	assert.Equal(t, ea, eb)
	assert.Equal(t, []EventType{EventPlayerJoined, EventNewMessage, EventStartJudging}, types(ea))
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{ea[0].Seq, ea[1].Seq, ea[2].Seq})
}

func TestHubConcurrentPublishersSameOrder(t *testing.T) {
	h := NewHub(1024, zerolog.Nop())
	a := h.Subscribe()
	b := h.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(startJudging("x"))
			}
		}()
	}
	wg.Wait()

	ea, eb := drain(a), drain(b)
	require.Len(t, ea, 200)
	assert.Equal(t, ea, eb)

	for i, ev := range ea {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
}

func TestHubSubscribeSeedComesFirst(t *testing.T) {
	h := NewHub(4, zerolog.Nop())
	h.Publish(startJudging("before"))

	sub := h.Subscribe(GameState(Snapshot{Status: StatusActive}))
	h.Publish(startJudging("after"))

	events := drain(sub)
	require.Len(t, events, 2)
	assert.Equal(t, EventGameState, events[0].Type)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, EventStartJudging, events[1].Type)
	assert.Equal(t, uint64(2), events[1].Seq)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(2, zerolog.Nop())
	slow := h.Subscribe()
	fast := h.Subscribe()

	for i := 0; i < 3; i++ {
		h.Publish(startJudging("x"))
		drain(fast)
	}

	assert.Equal(t, 1, h.Count())

	events := drain(slow)
	assert.Len(t, events, 2)

	_, open := <-slow.Events()
	assert.False(t, open)

	h.Publish(startJudging("y"))
	assert.Len(t, drain(fast), 1)
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub(4, zerolog.Nop())
	sub := h.Subscribe()

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	assert.Equal(t, 0, h.Count())

	h.Publish(startJudging("x"))

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestSessionAttachSnapshotBeforeLive(t *testing.T) {
	catalog, err := levels.New([]levels.Level{{Number: 1, Question: "2+2", Answer: "4"}})
	require.NoError(t, err)

	s := NewSession(catalog, NewHub(8, zerolog.Nop()))

	s.Do(func(st *Store) []Event {
		st.AddPlayer("alice")
		return []Event{playerJoined("alice")}
	})

	sub := s.Attach()
	defer s.Detach(sub)

	s.Do(func(st *Store) []Event {
		st.AddPlayer("bob")
		return []Event{playerJoined("bob")}
	})

	events := drain(sub)
	require.Len(t, events, 2)

	require.Equal(t, EventGameState, events[0].Type)
	snap := events[0].Payload.(Snapshot)
	assert.Equal(t, []Player{{Name: "alice", Alive: true}}, snap.Players)
	assert.Equal(t, 1, snap.Level.Number)
	assert.Empty(t, snap.Queue)

	assert.Equal(t, PlayerJoinedPayload{User: "bob"}, events[1].Payload)
}

func TestSessionAttachDuringSteps(t *testing.T) {
	catalog := levels.Default()
	s := NewSession(catalog, NewHub(4096, zerolog.Nop()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			name := fmt.Sprintf("p%d", i)
			s.Do(func(st *Store) []Event {
				st.AddPlayer(name)
				return []Event{playerJoined(name)}
			})
		}
	}()

	sub := s.Attach()
	<-done

	events := drain(sub)
	require.NotEmpty(t, events)
	require.Equal(t, EventGameState, events[0].Type)

	seen := make(map[string]bool)
	for _, p := range events[0].Payload.(Snapshot).Players {
		seen[p.Name] = true
	}

	for _, ev := range events[1:] {
		name := ev.Payload.(PlayerJoinedPayload).User
		assert.False(t, seen[name], "player %s both in snapshot and live", name)
		seen[name] = true
	}

	assert.Len(t, seen, 500)
}
