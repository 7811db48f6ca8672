/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package chat

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Seednode/meetquiz/game"
)

// File reads the chat from a text file of "sender: message" lines, re-read
// in full on every call. Lines without a separator are skipped.
type File struct {
	Path string
}

func (f File) Messages(context.Context) ([]game.Message, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening chat file: %w", err)
	}
	defer fh.Close()

	var out []game.Message

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		sender, text, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}

		sender, text = strings.TrimSpace(sender), strings.TrimSpace(text)
		if sender == "" || text == "" {
			continue
		}

		out = append(out, game.Message{Sender: sender, Text: text})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat file: %w", err)
	}

	return out, nil
}
