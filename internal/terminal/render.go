package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/tpmaster/internal/quiz"
)

const rule = "------------------------------------------------------------"

func markPrefix(m quiz.OptionMark) string {
	switch m {
	case quiz.MarkCorrect:
		return "✓"
	case quiz.MarkWrong:
		return "✗"
	case quiz.MarkDimmed:
		return "·"
	default:
		return " "
	}
}

// Render writes one full screen for s.
func Render(w io.Writer, s quiz.Session, reference string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "TP Master | %s\n", reference)
	lock := ""
	if s.DifficultyLocked() {
		lock = " (locked)"
	}
	fmt.Fprintf(&b, "Difficulty: %s%s    Streak: %d\n", s.Difficulty, lock, s.Streak)
	b.WriteString(rule + "\n")

	switch s.Phase {
	case quiz.PhaseLoading:
		b.WriteString("Loading question...\n")
	case quiz.PhaseError:
		msg := "Failed to load question. Please try again."
		if s.LastError != nil && s.LastError.Message != "" {
			msg = s.LastError.Message
		}
		fmt.Fprintf(&b, "Error: %s\n", msg)
		b.WriteString("[r] retry\n")
	case quiz.PhasePresented, quiz.PhaseAnswered:
		renderQuestion(&b, s)
	}

	b.WriteString(rule + "\n")
	b.WriteString(prompt(s) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func renderQuestion(b *strings.Builder, s quiz.Session) {
	q := s.Question
	if q == nil {
		return
	}
	fmt.Fprintf(b, "%s\n\n", q.Text)

	marks := quiz.OptionMarks(s)
	for i, opt := range q.Options {
		mark := " "
		if i < len(marks) {
			mark = markPrefix(marks[i])
		}
		fmt.Fprintf(b, " %s [%d] %s\n", mark, i+1, opt)
	}

	if !s.Answered() {
		return
	}
	b.WriteString("\n")
	if s.LastAnswerCorrect() {
		b.WriteString("Correct!\n")
	} else {
		fmt.Fprintf(b, "Incorrect. The answer is [%d].\n", q.CorrectIndex+1)
	}
	fmt.Fprintf(b, "Explanation: %s\n", q.Explanation)
}

func prompt(s quiz.Session) string {
	parts := []string{}
	switch s.Phase {
	case quiz.PhasePresented:
		parts = append(parts, "[1-4] answer")
	case quiz.PhaseAnswered:
		parts = append(parts, "[n] next")
	case quiz.PhaseError:
		parts = append(parts, "[r] retry")
	}
	if !s.DifficultyLocked() {
		parts = append(parts, "[e/m/h] difficulty")
	}
	parts = append(parts, "[q] quit")
	return strings.Join(parts, "  ") + " > "
}
