package quiz

import (
	"fmt"
	"strings"
)

// Difficulty is the hint passed to the question source. It is not a guarantee
// of how hard the generated question turns out to be.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// DefaultDifficulty is the difficulty a new session starts with.
const DefaultDifficulty = Medium

var difficulties = []Difficulty{Easy, Medium, Hard}

// Difficulties returns the closed set in display order.
func Difficulties() []Difficulty {
	out := make([]Difficulty, len(difficulties))
	copy(out, difficulties)
	return out
}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	default:
		return false
	}
}

func (d Difficulty) String() string { return string(d) }

// ParseDifficulty accepts the canonical names case-insensitively.
func ParseDifficulty(raw string) (Difficulty, error) {
	s := strings.TrimSpace(raw)
	for _, d := range difficulties {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
}
