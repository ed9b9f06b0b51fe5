package mood

import (
	"errors"
	"fmt"
	"strings"
)

// Mood selects which effect pair runs on both nodes.
type Mood string

const (
	Energy  Mood = "energy"
	Focus   Mood = "focus"
	Love    Mood = "love"
	Healing Mood = "healing"
	Relief  Mood = "relief"
)

// ErrUnknown is returned for mood tokens outside the fixed registry.
var ErrUnknown = errors.New("unknown mood")

var all = []Mood{Energy, Focus, Love, Healing, Relief}

// All returns the fixed mood registry in a stable order.
func All() []Mood {
	out := make([]Mood, len(all))
	copy(out, all)
	return out
}

func (m Mood) String() string { return string(m) }

// Valid reports whether m is one of the registered moods.
func (m Mood) Valid() bool {
	for _, v := range all {
		if v == m {
			return true
		}
	}
	return false
}

// Parse accepts a mood token case-insensitively, with surrounding whitespace.
func Parse(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return m, nil
}
