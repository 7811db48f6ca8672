/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"time"

	"github.com/Seednode/meetquiz/judge"
	"github.com/rs/zerolog"
)

const (
	DefaultJudgingPause    = 2 * time.Second
	DefaultTransitionPause = 3 * time.Second
	DefaultIdle            = 50 * time.Millisecond
	DefaultJudgeTimeout    = 10 * time.Second
)

// Judge decides whether submitted means the same as answer. question,
// answer and submitted are data only.
type Judge interface {
	Judge(ctx context.Context, question, answer, submitted string) (bool, error)
}

type RefereeConfig struct {
	JudgingPause    time.Duration
	TransitionPause time.Duration
	Idle            time.Duration
	JudgeTimeout    time.Duration
}

// Referee drains the guess queue one guess at a time and moves the game to
// the next level when someone is right.
type Referee struct {
	session  *Session
	judge    Judge
	fallback Judge
	cfg      RefereeConfig
	log      zerolog.Logger
}

// NewReferee builds a referee. A nil j judges by exact match only; when j
// fails or times out the exact match rule decides instead.
func NewReferee(session *Session, j Judge, cfg RefereeConfig, log zerolog.Logger) *Referee {
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultIdle
	}

	fallback := judge.Exact{}
	if j == nil {
		j = fallback
	}

	return &Referee{
		session:  session,
		judge:    j,
		fallback: fallback,
		cfg:      cfg,
		log:      log,
	}
}

// Run judges until ctx is done.
func (r *Referee) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Idle)
	defer ticker.Stop()

	for {
		for r.Step(ctx) {
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Step judges the guess at the front of the queue, if the game is active and
// there is one, and reports whether it did.
func (r *Referee) Step(ctx context.Context) bool {
	var (
		guess Guess
		ok    bool
	)

	r.session.Do(func(st *Store) []Event {
		if st.Status() != StatusActive {
			return nil
		}

		guess, ok = st.Front()
		if !ok {
			return nil
		}

		return []Event{startJudging(guess.Player)}
	})

	if !ok {
		return false
	}

	if err := sleep(ctx, r.cfg.JudgingPause); err != nil {
		return false
	}

	correct := r.evaluate(ctx, guess)

	var outcome Verdict

	r.session.Do(func(st *Store) []Event {
		if front, ok := st.Front(); !ok || front != guess {
			return nil
		}

		if !correct {
			outcome = VerdictWrong

			dead := false
			st.UpdatePlayer(guess.Player, PlayerUpdate{Alive: &dead})
			queue := st.PopFront()

			return []Event{judgeResult(guess.Player, VerdictWrong), queueUpdated(queue)}
		}

		outcome = VerdictCorrect

		st.ClearQueue()
		events := []Event{judgeResult(guess.Player, VerdictCorrect), queueUpdated(nil)}

		return append(events, r.beginTransition(st))
	})

	if outcome == "" {
		return true
	}

	r.log.Info().Str("player", guess.Player).Str("answer", guess.Answer).Str("result", string(outcome)).Msg("guess judged")

	if outcome != VerdictCorrect {
		return true
	}

	_ = sleep(ctx, r.cfg.TransitionPause)

	r.session.Do(func(st *Store) []Event {
		st.SetStatus(StatusActive)
		return nil
	})

	return true
}

// beginTransition suspends judging, installs the next level and revives
// everyone. The caller returns status to active once the pause is over.
func (r *Referee) beginTransition(st *Store) Event {
	st.SetStatus(StatusLevelTransition)

	next := r.session.catalog.Next(st.Level().Number)
	st.SetLevel(next)
	st.ReviveAll()

	r.log.Info().Int("level", next.Number).Msg("loading level")

	return loadLevel(next, st.Players())
}

// evaluate compares the guess with whatever level is current now.
func (r *Referee) evaluate(ctx context.Context, g Guess) bool {
	level := r.session.store.Level()

	jctx := ctx
	if r.cfg.JudgeTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(ctx, r.cfg.JudgeTimeout)
		defer cancel()
	}

	type verdict struct {
		ok  bool
		err error
	}

	done := make(chan verdict, 1)
	go func() {
		ok, err := r.judge.Judge(jctx, level.Question, level.Answer, g.Answer)
		done <- verdict{ok: ok, err: err}
	}()

	var v verdict
	select {
	case v = <-done:
	case <-jctx.Done():
		v.err = jctx.Err()
	}

	if v.err == nil {
		return v.ok
	}

	r.log.Warn().Err(v.err).Str("player", g.Player).Msg("judge failed, falling back to exact match")

	ok, _ := r.fallback.Judge(ctx, level.Question, level.Answer, g.Answer)

	return ok
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
