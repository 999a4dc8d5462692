package quiz

// Evaluate is the whole scoring rule.
func Evaluate(correctIndex, selected int) bool {
	return selected == correctIndex
}

// NextStreak counts consecutive correct answers; any miss resets it.
func NextStreak(streak int, correct bool) int {
	if correct {
		return streak + 1
	}
	return 0
}

// Reduce applies one intent. It is deterministic and never mutates s; the
// returned Fetch is non-nil when a question request must be issued.
// Intents that are not valid in the current state leave the session as is.
func Reduce(s Session, in Intent) (Session, *Fetch) {
	switch in.Kind {
	case IntentRequestQuestion:
		if s.Pending {
			return s, nil
		}
		return beginRequest(s)

	case IntentRetry:
		if s.Phase != PhaseError || s.Pending {
			return s, nil
		}
		return beginRequest(s)

	case IntentSelectOption:
		if s.Phase != PhasePresented || s.Question == nil || s.Selected != NoSelection {
			return s, nil
		}
		if in.Option < 0 || in.Option >= len(s.Question.Options) {
			return s, nil
		}
		s.Selected = in.Option
		s.Streak = NextStreak(s.Streak, Evaluate(s.Question.CorrectIndex, in.Option))
		s.Phase = PhaseAnswered
		return s, nil

	case IntentChangeDifficulty:
		if !in.Difficulty.Valid() || in.Difficulty == s.Difficulty || s.DifficultyLocked() {
			return s, nil
		}
		s.Difficulty = in.Difficulty
		return beginRequest(s)

	case IntentQuestionLoaded:
		if !s.Pending || in.Seq != s.Seq {
			return s, nil
		}
		s.Pending = false
		if err := in.Question.Validate(); err != nil {
			f := FailureFromError(err)
			s.LastError = &f
			s.Phase = PhaseError
			return s, nil
		}
		s.Question = in.Question.Clone()
		s.Phase = PhasePresented
		return s, nil

	case IntentQuestionFailed:
		if !s.Pending || in.Seq != s.Seq {
			return s, nil
		}
		f := in.Failure
		if f.Message == "" {
			f = FailureFromError(nil)
		}
		s.Pending = false
		s.LastError = &f
		s.Phase = PhaseError
		return s, nil
	}
	return s, nil
}

func beginRequest(s Session) (Session, *Fetch) {
	s.Question = nil
	s.Selected = NoSelection
	s.LastError = nil
	s.Phase = PhaseLoading
	s.Seq++
	s.Pending = true
	return s, &Fetch{Seq: s.Seq, Difficulty: s.Difficulty}
}
