/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game runs a chat-driven quiz: players join by speaking in the
// meeting chat, answer with a marker prefix, and die on wrong answers until
// someone gets the level right.
package game

import (
	"github.com/Seednode/meetquiz/levels"
)

// Status is the two-state machine the referee runs on.
type Status string

const (
	StatusActive          Status = "ACTIVE"
	StatusLevelTransition Status = "LEVEL_TRANSITION"
)

type Player struct {
	Name  string `json:"name"`
	Alive bool   `json:"isAlive"`
}

// PlayerUpdate is a partial update; nil fields are left alone.
type PlayerUpdate struct {
	Alive *bool
}

// Guess is an answer waiting to be judged.
type Guess struct {
	Player string `json:"playerName"`
	Answer string `json:"answer"`
}

// Message is one chat line. The (Sender, Text) pair is its identity.
type Message struct {
	Sender string `json:"user"`
	Text   string `json:"message"`
}

func (m Message) key() string {
	return m.Sender + "\x00" + m.Text
}

// Snapshot is a point-in-time copy of the game.
type Snapshot struct {
	Status  Status       `json:"gameStatus"`
	Level   levels.Level `json:"currentLevel"`
	Players []Player     `json:"players"`
	Queue   []Guess      `json:"guessingQueue"`
}
