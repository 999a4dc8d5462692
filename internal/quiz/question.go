package quiz

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OptionCount is the fixed number of options on every question.
const OptionCount = 4

var (
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrEmptyQuestionText  = errors.New("question text is required")
	ErrOptionCount        = fmt.Errorf("question must have exactly %d options", OptionCount)
	ErrEmptyOption        = errors.New("question options must be non-empty")
	ErrCorrectIndexRange  = fmt.Errorf("correct option index must be between 0 and %d", OptionCount-1)
	ErrEmptyExplanation   = errors.New("question explanation is required")
	ErrMalformedQuestion  = errors.New("malformed question")
	ErrRateLimited        = errors.New("question source rate limited")
	ErrSourceUnavailable  = errors.New("question source unavailable")
	ErrTopicRequired      = errors.New("topic is required")
	ErrDifficultyRequired = errors.New("difficulty is required")
)

// Question is one generated multiple-choice item. The JSON names are the wire
// names used between the presentation layer and the generation proxy.
type Question struct {
	Text         string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctOptionIndex"`
	Explanation  string   `json:"explanation"`
}

// Validate checks the structural shape only. Whether the options are really
// distinct or the explanation accurate is not checked.
func (q *Question) Validate() error {
	if q == nil {
		return ErrMalformedQuestion
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestionText
	}
	if len(q.Options) != OptionCount {
		return ErrOptionCount
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return ErrEmptyOption
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ErrCorrectIndexRange
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return ErrEmptyExplanation
	}
	return nil
}

// Clone returns a copy that shares no memory with q.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	out := *q
	out.Options = slices.Clone(q.Options)
	return &out
}

// Request is what the controller asks the question source for.
type Request struct {
	Topic          string
	Difficulty     Difficulty
	DifficultyHint string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrTopicRequired
	}
	if r.Difficulty == "" {
		return ErrDifficultyRequired
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, string(r.Difficulty))
	}
	return nil
}
