/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"encoding/json"

	"github.com/Seednode/meetquiz/levels"
)

type EventType string

const (
	EventNewMessage      EventType = "new-message"
	EventPlayerJoined    EventType = "player-joined"
	EventAnswerSubmitted EventType = "answer-submitted"
	EventStartJudging    EventType = "start-judging"
	EventJudgeResult     EventType = "judge-result"
	EventLoadLevel       EventType = "load-level"
	EventQueueUpdated    EventType = "queue-updated"
	EventGameState       EventType = "game-state"
)

type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictWrong   Verdict = "wrong"
)

// Event is an immutable fact about one state change. Seq is assigned by the
// hub on publish; the snapshot sent on attach carries the sequence number of
// the last event it already reflects.
type Event struct {
	Seq     uint64    `json:"-"`
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type NewMessagePayload struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

type PlayerJoinedPayload struct {
	User string `json:"user"`
}

type AnswerSubmittedPayload struct {
	User   string `json:"user"`
	Answer string `json:"answer"`
}

type StartJudgingPayload struct {
	PlayerName string `json:"playerName"`
}

type JudgeResultPayload struct {
	PlayerName string  `json:"playerName"`
	Result     Verdict `json:"result"`
}

type LoadLevelPayload struct {
	Level   levels.Level `json:"level"`
	Players []Player     `json:"players"`
}

type QueueUpdatedPayload struct {
	Queue []Guess `json:"queue"`
}

func newMessage(m Message) Event {
	return Event{Type: EventNewMessage, Payload: NewMessagePayload{User: m.Sender, Message: m.Text}}
}

func playerJoined(name string) Event {
	return Event{Type: EventPlayerJoined, Payload: PlayerJoinedPayload{User: name}}
}

func answerSubmitted(g Guess) Event {
	return Event{Type: EventAnswerSubmitted, Payload: AnswerSubmittedPayload{User: g.Player, Answer: g.Answer}}
}

func startJudging(name string) Event {
	return Event{Type: EventStartJudging, Payload: StartJudgingPayload{PlayerName: name}}
}

func judgeResult(name string, v Verdict) Event {
	return Event{Type: EventJudgeResult, Payload: JudgeResultPayload{PlayerName: name, Result: v}}
}

func loadLevel(l levels.Level, players []Player) Event {
	return Event{Type: EventLoadLevel, Payload: LoadLevelPayload{Level: l, Players: players}}
}

func queueUpdated(q []Guess) Event {
	if q == nil {
		q = []Guess{}
	}

	return Event{Type: EventQueueUpdated, Payload: QueueUpdatedPayload{Queue: q}}
}

// GameState builds the event sent once to a viewer when it connects.
func GameState(s Snapshot) Event {
	return Event{Type: EventGameState, Payload: s}
}

// Encode returns the wire form of the event: {"type": ..., "payload": ...}.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
