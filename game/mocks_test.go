/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// --- ChatSource ---

type fakeChat struct {
	mu    sync.Mutex
	lines []Message
	err   error
}

func (f *fakeChat) say(sender, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines = append(f.lines, Message{Sender: sender, Text: text})
}

func (f *fakeChat) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = err
}

func (f *fakeChat) Messages(context.Context) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	out := make([]Message, len(f.lines))
	copy(out, f.lines)

	return out, nil
}

// --- Judge ---

type MockJudge struct {
	mock.Mock
}

func (m *MockJudge) Judge(ctx context.Context, question, answer, submitted string) (bool, error) {
	args := m.Called(question, answer, submitted)
	return args.Bool(0), args.Error(1)
}

type blockingJudge struct{}

func (blockingJudge) Judge(ctx context.Context, _, _, _ string) (bool, error) {
	select {}
}
