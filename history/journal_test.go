/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Seednode/meetquiz/game"
	"github.com/Seednode/meetquiz/levels"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, game.Event{Seq: 1, Type: game.EventPlayerJoined, Payload: game.PlayerJoinedPayload{User: "alice"}}))
	require.NoError(t, j.Record(ctx, game.Event{Seq: 2, Type: game.EventJudgeResult, Payload: game.JudgeResultPayload{PlayerName: "alice", Result: game.VerdictCorrect}}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(2), entries[0].Seq)
	assert.Equal(t, "judge-result", entries[0].Type)
	assert.JSONEq(t, `{"playerName":"alice","result":"correct"}`, string(entries[0].Payload))
	assert.Equal(t, "player-joined", entries[1].Type)

	entries, err = j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFollowRecordsSessionEvents(t *testing.T) {
	j := openJournal(t)

	session := game.NewSession(levels.Default(), game.NewHub(16, zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Follow(ctx, session)
	}()

	assert.Eventually(t, func() bool {
		return session.Hub().Count() == 1
	}, time.Second, time.Millisecond)

	session.Do(func(st *game.Store) []game.Event {
		st.AddPlayer("alice")
		return []game.Event{{Type: game.EventPlayerJoined, Payload: game.PlayerJoinedPayload{User: "alice"}}}
	})

	assert.Eventually(t, func() bool {
		entries, err := j.Recent(context.Background(), 10)
		return err == nil && len(entries) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "player-joined", entries[0].Type)
	assert.Equal(t, "game-state", entries[1].Type)
	assert.Equal(t, 0, session.Hub().Count())
}
