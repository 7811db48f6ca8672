/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package judge decides whether a submitted answer is correct.
package judge

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Exact accepts an answer equal to the correct one, ignoring case and
// surrounding whitespace. It never fails.
type Exact struct{}

func (Exact) Judge(_ context.Context, _, answer, submitted string) (bool, error) {
	return Match(answer, submitted), nil
}

// Match reports whether a and b are equal under Unicode case folding.
func Match(a, b string) bool {
	fold := cases.Fold()

	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
