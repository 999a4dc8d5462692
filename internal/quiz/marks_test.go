package quiz

import "testing"

func countMarks(marks []OptionMark, m OptionMark) int {
	n := 0
	for _, x := range marks {
		if x == m {
			n++
		}
	}
	return n
}

func TestOptionMarksBeforeAnswer(t *testing.T) {
	s := presented(t, sampleQuestion(2))
	marks := OptionMarks(s)
	if len(marks) != 4 || countMarks(marks, MarkOpen) != 4 {
		t.Fatalf("unexpected marks: %v", marks)
	}
	if OptionMarks(NewSession()) != nil {
		t.Fatalf("no marks without a question")
	}
}

func TestOptionMarksAfterIncorrectPick(t *testing.T) {
	s := presented(t, sampleQuestion(2))
	s, _ = Reduce(s, SelectOption(0))
	marks := OptionMarks(s)

	if countMarks(marks, MarkCorrect) != 1 || marks[2] != MarkCorrect {
		t.Fatalf("expected only index 2 correct: %v", marks)
	}
	if marks[0] != MarkWrong || marks[1] != MarkDimmed || marks[3] != MarkDimmed {
		t.Fatalf("unexpected marks: %v", marks)
	}
}

func TestOptionMarksAfterCorrectPick(t *testing.T) {
	s := presented(t, sampleQuestion(2))
	s, _ = Reduce(s, SelectOption(2))
	marks := OptionMarks(s)

	if countMarks(marks, MarkCorrect) != 1 || marks[2] != MarkCorrect {
		t.Fatalf("expected only index 2 correct: %v", marks)
	}
	if countMarks(marks, MarkWrong) != 0 {
		t.Fatalf("no option may be wrong after a correct pick: %v", marks)
	}
}
