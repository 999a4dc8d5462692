package quiz

import (
	"errors"
	"strings"
)

type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseError     Phase = "error"
	PhasePresented Phase = "presented"
	PhaseAnswered  Phase = "answered"
)

// NoSelection marks a session without a locked-in answer.
const NoSelection = -1

type FailureKind string

const (
	FailureGeneric     FailureKind = "generic"
	FailureRateLimited FailureKind = "rate_limited"
)

const (
	msgGenericFailure     = "Failed to load question. Please try again."
	msgRateLimitedFailure = "Question limit reached. Please wait a moment and try again."
)

// Failure is what the session keeps from a failed question request.
type Failure struct {
	Kind    FailureKind
	Message string
}

// FailureFromError collapses any source error into the two user-facing kinds.
// Rate limiting is recognised from ErrRateLimited or from the upstream text
// mentioning 429 or Quota.
func FailureFromError(err error) Failure {
	if isRateLimited(err) {
		return Failure{Kind: FailureRateLimited, Message: msgRateLimitedFailure}
	}
	return Failure{Kind: FailureGeneric, Message: msgGenericFailure}
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Quota")
}

// Session is the whole mutable quiz state. It is a value: Reduce returns a new
// one and never mutates its input.
type Session struct {
	Difficulty Difficulty
	Phase      Phase
	Question   *Question
	Selected   int
	Streak     int
	LastError  *Failure

	// Seq identifies the most recent fetch; completions carrying another
	// sequence are stale and dropped.
	Seq     uint64
	Pending bool
}

func NewSession() Session {
	return Session{
		Difficulty: DefaultDifficulty,
		Phase:      PhaseLoading,
		Selected:   NoSelection,
	}
}

// Answered reports whether an option is locked in.
func (s Session) Answered() bool {
	return s.Phase == PhaseAnswered && s.Selected != NoSelection && s.Question != nil
}

// LastAnswerCorrect is only meaningful while Answered.
func (s Session) LastAnswerCorrect() bool {
	return s.Answered() && Evaluate(s.Question.CorrectIndex, s.Selected)
}

// DifficultyLocked is the gating rule: no difficulty change while loading, or
// while an incorrect answer has not been acknowledged by moving on.
func (s Session) DifficultyLocked() bool {
	if s.Phase == PhaseLoading {
		return true
	}
	return s.Phase == PhaseAnswered && !s.LastAnswerCorrect()
}

// OptionsLocked reports whether option selection is disabled.
func (s Session) OptionsLocked() bool {
	return s.Phase != PhasePresented
}
