/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFrames(t *testing.T) {
	stream := ": keepalive\n\n" +
		"id: 3\nevent: new-message\ndata: {\"type\":\"new-message\"}\n\n" +
		"event: multi\ndata: one\ndata: two\n\n" +
		"retry: 1000\n\n"

	var got []frame
	require.NoError(t, readFrames(strings.NewReader(stream), func(f frame) {
		got = append(got, f)
	}))

	require.Len(t, got, 2)
	assert.Equal(t, frame{id: "3", event: "new-message", data: []byte(`{"type":"new-message"}`)}, got[0])
	assert.Equal(t, "multi", got[1].event)
	assert.Equal(t, "one\ntwo", string(got[1].data))
}

func TestRender(t *testing.T) {
	tests := []struct {
		desc  string
		event string
		data  string
		want  string
	}{
		{
			desc:  "chat message",
			event: "new-message",
			data:  `{"type":"new-message","payload":{"user":"alice","message":"hi all"}}`,
			want:  "[alice] hi all\n",
		},
		{
			desc:  "join",
			event: "player-joined",
			data:  `{"type":"player-joined","payload":{"user":"bob"}}`,
			want:  "+ bob joined\n",
		},
		{
			desc:  "answer",
			event: "answer-submitted",
			data:  `{"type":"answer-submitted","payload":{"user":"bob","answer":"paris"}}`,
			want:  "? bob answers \"paris\"\n",
		},
		{
			desc:  "correct verdict",
			event: "judge-result",
			data:  `{"type":"judge-result","payload":{"playerName":"bob","result":"correct"}}`,
			want:  "✓ bob is correct\n",
		},
		{
			desc:  "wrong verdict",
			event: "judge-result",
			data:  `{"type":"judge-result","payload":{"playerName":"bob","result":"wrong"}}`,
			want:  "✗ bob is wrong\n",
		},
		{
			desc:  "queue",
			event: "queue-updated",
			data:  `{"type":"queue-updated","payload":{"queue":[{"playerName":"a","answer":"x"},{"playerName":"b","answer":"y"}]}}`,
			want:  "   queue: [a, b]\n",
		},
		{
			desc:  "new level",
			event: "load-level",
			data:  `{"type":"load-level","payload":{"level":{"levelNumber":2,"question":"Q2","correctAnswer":"A2"},"players":[]}}`,
			want:  "== Level 2: Q2 ==\n",
		},
		{
			desc:  "snapshot",
			event: "game-state",
			data:  `{"type":"game-state","payload":{"gameStatus":"ACTIVE","currentLevel":{"levelNumber":1,"question":"Q1"},"players":[{"name":"a","isAlive":true},{"name":"b","isAlive":false}],"guessingQueue":[]}}`,
			want:  "== Level 1: Q1 ==\n   status: ACTIVE, players: a, b (out), queued guesses: 0\n",
		},
		{
			desc:  "unknown events are ignored",
			event: "confetti",
			data:  `{"type":"confetti","payload":{}}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			render(&buf, frame{event: tt.event, data: []byte(tt.data)})

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// cancelWriter stops the watcher after the first write.
type cancelWriter struct {
	bytes.Buffer
	cancel context.CancelFunc
}

func (w *cancelWriter) Write(p []byte) (int, error) {
	defer w.cancel()

	return w.Buffer.Write(p)
}

func TestWatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: player-joined\ndata: {\"payload\":{\"user\":\"erin\"}}\n\n")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &cancelWriter{cancel: cancel}

	require.NoError(t, watch(ctx, testConfig(), srv.URL, out))
	assert.Equal(t, "+ erin joined\n", out.String())
}
