/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

const reconnectDelay = 2 * time.Second

// frame is one server-sent event as read off the wire.
type frame struct {
	id    string
	event string
	data  []byte
}

// readFrames calls fn for every complete frame in r. Comments and unknown
// fields are skipped.
func readFrames(r io.Reader, fn func(frame)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		cur  frame
		data [][]byte
	)

	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) == 0 {
			if cur.event != "" || len(data) > 0 {
				cur.data = bytes.Join(data, []byte("\n"))
				fn(cur)
			}
			cur, data = frame{}, nil

			continue
		}

		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))

		switch string(field) {
		case "id":
			cur.id = string(value)
		case "event":
			cur.event = string(value)
		case "data":
			data = append(data, bytes.Clone(value))
		}
	}

	return scanner.Err()
}

// render prints one frame for a human. Events it does not know are ignored.
func render(w io.Writer, f frame) {
	p := gjson.GetBytes(f.data, "payload")

	switch f.event {
	case "game-state":
		var names []string
		p.Get("players").ForEach(func(_, pl gjson.Result) bool {
			name := pl.Get("name").String()
			if !pl.Get("isAlive").Bool() {
				name += " (out)"
			}
			names = append(names, name)

			return true
		})

		fmt.Fprintf(w, "== Level %d: %s ==\n", p.Get("currentLevel.levelNumber").Int(), p.Get("currentLevel.question").String())
		fmt.Fprintf(w, "   status: %s, players: %s, queued guesses: %d\n",
			p.Get("gameStatus").String(),
			strings.Join(names, ", "),
			len(p.Get("guessingQueue").Array()))
	case "new-message":
		fmt.Fprintf(w, "[%s] %s\n", p.Get("user").String(), p.Get("message").String())
	case "player-joined":
		fmt.Fprintf(w, "+ %s joined\n", p.Get("user").String())
	case "answer-submitted":
		fmt.Fprintf(w, "? %s answers %q\n", p.Get("user").String(), p.Get("answer").String())
	case "start-judging":
		fmt.Fprintf(w, "… judging %s\n", p.Get("playerName").String())
	case "judge-result":
		mark := "✗"
		if p.Get("result").String() == "correct" {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s is %s\n", mark, p.Get("playerName").String(), p.Get("result").String())
	case "load-level":
		fmt.Fprintf(w, "== Level %d: %s ==\n", p.Get("level.levelNumber").Int(), p.Get("level.question").String())
	case "queue-updated":
		var queue []string
		p.Get("queue").ForEach(func(_, g gjson.Result) bool {
			queue = append(queue, g.Get("playerName").String())

			return true
		})
		fmt.Fprintf(w, "   queue: [%s]\n", strings.Join(queue, ", "))
	}
}

func watch(ctx context.Context, cfg *Config, url string, out io.Writer) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			if resp.StatusCode != http.StatusOK {
				err = fmt.Errorf("unexpected status %s", resp.Status)
			} else {
				err = readFrames(resp.Body, func(f frame) {
					render(out, f)
				})
			}
			resp.Body.Close()
		}

		if ctx.Err() != nil {
			return nil
		}

		cfg.logger.Warn().Err(err).Str("url", url).Msg("event stream lost, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func newWatchCmd(cfg *Config) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running game from the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), cfg, url, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080/events", "event stream to follow")

	return cmd
}
