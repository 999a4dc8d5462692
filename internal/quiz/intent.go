package quiz

import "fmt"

type IntentKind int

const (
	IntentRequestQuestion IntentKind = iota + 1
	IntentSelectOption
	IntentChangeDifficulty
	IntentRetry

	// Completions of a Fetch effect.
	IntentQuestionLoaded
	IntentQuestionFailed
)

func (k IntentKind) String() string {
	switch k {
	case IntentRequestQuestion:
		return "request_question"
	case IntentSelectOption:
		return "select_option"
	case IntentChangeDifficulty:
		return "change_difficulty"
	case IntentRetry:
		return "retry"
	case IntentQuestionLoaded:
		return "question_loaded"
	case IntentQuestionFailed:
		return "question_failed"
	default:
		return fmt.Sprintf("intent(%d)", int(k))
	}
}

type Intent struct {
	Kind       IntentKind
	Option     int
	Difficulty Difficulty

	Seq      uint64
	Question *Question
	Failure  Failure
}

func RequestQuestion() Intent { return Intent{Kind: IntentRequestQuestion} }

// Next advances past an answered question.
func Next() Intent { return RequestQuestion() }

func Retry() Intent { return Intent{Kind: IntentRetry} }

func SelectOption(i int) Intent { return Intent{Kind: IntentSelectOption, Option: i} }

func ChangeDifficulty(d Difficulty) Intent {
	return Intent{Kind: IntentChangeDifficulty, Difficulty: d}
}

func QuestionLoaded(seq uint64, q *Question) Intent {
	return Intent{Kind: IntentQuestionLoaded, Seq: seq, Question: q}
}

func QuestionFailed(seq uint64, f Failure) Intent {
	return Intent{Kind: IntentQuestionFailed, Seq: seq, Failure: f}
}

// Fetch is the only side effect the reducer asks for: one question at the
// given difficulty. The topic is drawn by whoever executes it.
type Fetch struct {
	Seq        uint64
	Difficulty Difficulty
}
