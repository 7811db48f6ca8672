/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package chat provides the sources the poller reads meeting chat from.
package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/Seednode/meetquiz/game"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNoDriver is returned until a browser driver has sent its first snapshot.
var ErrNoDriver = errors.New("no chat driver connected")

// Line is one chat line as sent by the browser driver.
type Line struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// Snapshot is the driver's view of the whole chat panel.
type Snapshot struct {
	Lines []Line `json:"lines"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Relay accepts websocket connections from a script running inside the
// meeting tab. Each message the script sends replaces the current chat
// snapshot, which the poller then reads like any other source.
type Relay struct {
	mu       sync.RWMutex
	lines    []game.Message
	received bool
	drivers  int

	log zerolog.Logger
}

func NewRelay(log zerolog.Logger) *Relay {
	return &Relay{log: log}
}

func (r *Relay) Messages(context.Context) ([]game.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.received {
		return nil, ErrNoDriver
	}

	out := make([]game.Message, len(r.lines))
	copy(out, r.lines)

	return out, nil
}

// Store replaces the current snapshot. Lines with an empty message are
// dropped and a missing sender becomes "Unknown".
func (r *Relay) Store(s Snapshot) {
	lines := make([]game.Message, 0, len(s.Lines))
	for _, l := range s.Lines {
		text := strings.TrimSpace(l.Message)
		if text == "" {
			continue
		}

		user := strings.TrimSpace(l.User)
		if user == "" {
			user = "Unknown"
		}

		lines = append(lines, game.Message{Sender: user, Text: text})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = lines
	r.received = true
}

// Drivers returns how many driver connections are open.
func (r *Relay) Drivers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.drivers
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("chat driver upgrade failed")
		return
	}
	defer conn.Close()

	r.mu.Lock()
	r.drivers++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.drivers--
		r.mu.Unlock()
	}()

	r.log.Info().Str("remote", req.RemoteAddr).Msg("chat driver connected")

	for {
		var s Snapshot
		if err := conn.ReadJSON(&s); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.log.Warn().Err(err).Msg("chat driver read failed")
			}
			r.log.Info().Str("remote", req.RemoteAddr).Msg("chat driver disconnected")

			return
		}

		r.Store(s)
	}
}
