/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Seednode/meetquiz/game"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const keepaliveInterval = 15 * time.Second

var viewerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// writeEvent writes ev as one server-sent event frame.
func writeEvent(w io.Writer, ev game.Event) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, data)

	return err
}

func serveEvents(cfg *Config, session *game.Session, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		rc := http.NewResponseController(w)

		// The stream outlives the server's write timeout.
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		securityHeaders(cfg, w)

		sub := session.Attach()
		defer session.Detach(sub)

		logf(cfg, "SERVE: Event stream %s opened by %s", sub.ID, realIP(r))

		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			errs <- err

			return
		}

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		var sent int64
		defer func() {
			logf(cfg, "SERVE: Event stream %s to %s closed after %d events in %s",
				sub.ID,
				realIP(r),
				sent,
				time.Since(startTime).Round(time.Second),
			)
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}

				if err := writeEvent(w, ev); err != nil {
					return
				}
				sent++
			case <-keepalive.C:
				if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
					return
				}
			}

			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func serveViewerSocket(cfg *Config, session *game.Session) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := viewerUpgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.Warn().Err(err).Str("remote", realIP(r)).Msg("viewer upgrade failed")

			return
		}

		sub := session.Attach()

		logf(cfg, "SERVE: Viewer socket %s opened by %s", sub.ID, realIP(r))

		go viewerWritePump(conn, sub)
		viewerReadPump(conn)

		session.Detach(sub)

		logf(cfg, "SERVE: Viewer socket %s to %s closed", sub.ID, realIP(r))
	}
}

// viewerReadPump discards anything the viewer sends and returns once the
// connection is gone.
func viewerReadPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func viewerWritePump(conn *websocket.Conn, sub *game.Subscriber) {
	defer conn.Close()

	for ev := range sub.Events() {
		data, err := ev.Encode()
		if err != nil {
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "fell behind"),
		time.Now().Add(time.Second))
}
