/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package history keeps a journal of every game event in SQLite. It is a
// record only; nothing is read back into a running game.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Seednode/meetquiz/game"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	seq        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Entry is one journaled event.
type Entry struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

type Journal struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Open creates or opens the journal database at path.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Journal{db: db, log: log, now: time.Now}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, ev game.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO events (seq, type, payload, created_at) VALUES (?, ?, ?, ?)`,
		int64(ev.Seq), string(ev.Type), string(payload), j.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Type, err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, type, payload, created_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			seq, at int64
			payload string
		)
		if err := rows.Scan(&seq, &e.Type, &payload, &at); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}

		e.Seq = uint64(seq)
		e.Payload = json.RawMessage(payload)
		e.At = time.UnixMilli(at)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Follow attaches to the session like a viewer and records everything it
// hears until ctx is done. If the hub drops it for falling behind, it
// attaches again and starts over from a fresh snapshot.
func (j *Journal) Follow(ctx context.Context, session *game.Session) {
	for {
		sub := session.Attach()

		j.drain(ctx, sub)
		session.Detach(sub)

		if ctx.Err() != nil {
			return
		}

		j.log.Warn().Msg("journal fell behind, reattaching")
	}
}

func (j *Journal) drain(ctx context.Context, sub *game.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}

			if err := j.Record(ctx, ev); err != nil {
				j.log.Warn().Err(err).Msg("journal write failed")
			}
		}
	}
}
