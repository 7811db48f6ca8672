/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMarker       = "!"
	DefaultPollInterval = 100 * time.Millisecond
)

// ChatSource returns every chat line currently visible, oldest first. It is
// not expected to remember what it has already returned.
type ChatSource interface {
	Messages(ctx context.Context) ([]Message, error)
}

type PollerConfig struct {
	Marker   string
	Interval time.Duration
}

// Poller turns new chat lines into joins, messages and guesses.
type Poller struct {
	session *Session
	source  ChatSource
	cfg     PollerConfig
	log     zerolog.Logger
}

func NewPoller(session *Session, source ChatSource, cfg PollerConfig, log zerolog.Logger) *Poller {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}

	return &Poller{
		session: session,
		source:  source,
		cfg:     cfg,
		log:     log,
	}
}

// Run polls until ctx is done. Failed ticks are logged and skipped.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.log.Info().Dur("interval", p.cfg.Interval).Str("marker", p.cfg.Marker).Msg("chat polling started")

	for {
		if n, err := p.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn().Err(err).Msg("chat poll failed")
		} else if n > 0 {
			p.log.Info().Int("count", n).Msg("new chat messages")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick fetches the chat once and handles every line not seen before. It
// returns how many lines were new.
func (p *Poller) Tick(ctx context.Context) (int, error) {
	lines, err := p.source.Messages(ctx)
	if err != nil {
		return 0, err
	}

	var n int

	p.session.Do(func(st *Store) []Event {
		fresh := st.Observe(lines)
		n = len(fresh)

		var events []Event
		for _, m := range fresh {
			if st.AddPlayer(m.Sender) {
				events = append(events, playerJoined(m.Sender))
			}

			answer, ok := p.answer(m.Text)
			if !ok {
				events = append(events, newMessage(m))
				continue
			}

			g := Guess{Player: m.Sender, Answer: answer}
			queue := st.Enqueue(g)
			events = append(events, answerSubmitted(g), queueUpdated(queue))
		}

		return events
	})

	return n, nil
}

// answer strips the marker from text. Text that is only the marker is not an
// answer.
func (p *Poller) answer(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, p.cfg.Marker)
	if !ok {
		return "", false
	}

	rest = strings.TrimSpace(rest)

	return rest, rest != ""
}
