/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package levels holds the fixed, ordered list of quiz questions.
package levels

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

var ErrInvalidCatalog = errors.New("invalid level catalog")

// Level is a single question. Numbers start at 1 and are contiguous.
type Level struct {
	Number   int    `json:"levelNumber" yaml:"number"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"correctAnswer" yaml:"answer"`
}

// Catalog is immutable once built.
type Catalog struct {
	levels []Level
}

// New validates levels and returns a catalog over a private copy of them.
func New(levels []Level) (*Catalog, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidCatalog)
	}

	own := make([]Level, len(levels))
	copy(own, levels)

	for i, l := range own {
		if l.Number != i+1 {
			return nil, fmt.Errorf("%w: level at position %d has number %d", ErrInvalidCatalog, i+1, l.Number)
		}
		if strings.TrimSpace(l.Answer) == "" {
			return nil, fmt.Errorf("%w: level %d has no answer", ErrInvalidCatalog, l.Number)
		}
	}

	return &Catalog{levels: own}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{levels: []Level{
		{Number: 1, Question: "What is the capital of France?", Answer: "paris"},
		{Number: 2, Question: "What is 2 + 2?", Answer: "4"},
		{Number: 3, Question: "What color do you get when you mix red and white?", Answer: "pink"},
		{Number: 4, Question: "How many days are in a week?", Answer: "7"},
		{Number: 5, Question: "What is the largest planet in our solar system?", Answer: "jupiter"},
	}}
}

// Load reads a catalog from a YAML file containing a list of levels.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file struct {
		Levels []Level `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return New(file.Levels)
}

// Get looks up a level by number. Out of range numbers are not found.
func (c *Catalog) Get(number int) (Level, bool) {
	if number < 1 || number > len(c.levels) {
		return Level{}, false
	}

	return c.levels[number-1], true
}

// Count returns the number of levels.
func (c *Catalog) Count() int {
	return len(c.levels)
}

// Next returns the level after number, wrapping back to level 1.
func (c *Catalog) Next(number int) Level {
	next := number + 1
	if next > c.Count() {
		next = 1
	}

	l, ok := c.Get(next)
	if !ok {
		l, _ = c.Get(1)
	}

	return l
}
