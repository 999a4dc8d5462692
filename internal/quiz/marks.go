package quiz

// OptionMark is how one option should be drawn.
type OptionMark int

const (
	MarkOpen OptionMark = iota
	MarkCorrect
	MarkWrong
	MarkDimmed
)

func (m OptionMark) String() string {
	switch m {
	case MarkOpen:
		return "open"
	case MarkCorrect:
		return "correct"
	case MarkWrong:
		return "wrong"
	case MarkDimmed:
		return "dimmed"
	default:
		return "unknown"
	}
}

// OptionMarks returns one mark per option, or nil when no question is shown.
// Once answered exactly one option is MarkCorrect; a wrong pick is MarkWrong
// and the rest are dimmed.
func OptionMarks(s Session) []OptionMark {
	if s.Question == nil {
		return nil
	}
	marks := make([]OptionMark, len(s.Question.Options))
	if !s.Answered() {
		return marks
	}
	for i := range marks {
		switch {
		case i == s.Question.CorrectIndex:
			marks[i] = MarkCorrect
		case i == s.Selected:
			marks[i] = MarkWrong
		default:
			marks[i] = MarkDimmed
		}
	}
	return marks
}
