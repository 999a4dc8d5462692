package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/tpmaster/internal/quiz"
)

const ref = "OECD Transfer Pricing Guidelines 2022"

func presented(t *testing.T, correct int) quiz.Session {
	t.Helper()
	s, fetch := quiz.Reduce(quiz.NewSession(), quiz.RequestQuestion())
	if fetch == nil {
		t.Fatalf("expected fetch")
	}
	s, _ = quiz.Reduce(s, quiz.QuestionLoaded(fetch.Seq, &quiz.Question{
		Text:         "Which chapter covers intangibles?",
		Options:      []string{"Chapter I", "Chapter IV", "Chapter VI", "Chapter IX"},
		CorrectIndex: correct,
		Explanation:  "Chapter VI deals with special considerations for intangibles.",
	}))
	return s
}

func render(t *testing.T, s quiz.Session) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, s, ref); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRenderLoading(t *testing.T) {
	s, _ := quiz.Reduce(quiz.NewSession(), quiz.RequestQuestion())
	out := render(t, s)
	for _, want := range []string{"Loading question...", "Difficulty: Medium (locked)", "Streak: 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderError(t *testing.T) {
	s, fetch := quiz.Reduce(quiz.NewSession(), quiz.RequestQuestion())
	s, _ = quiz.Reduce(s, quiz.QuestionFailed(fetch.Seq, quiz.FailureFromError(errors.New("boom"))))
	out := render(t, s)
	if !strings.Contains(out, "Error: Failed to load question. Please try again.") || !strings.Contains(out, "[r] retry") {
		t.Fatalf("unexpected screen:\n%s", out)
	}
}

func TestRenderAnsweredIncorrect(t *testing.T) {
	s, _ := quiz.Reduce(presented(t, 2), quiz.SelectOption(0))
	out := render(t, s)
	for _, want := range []string{
		"✗ [1] Chapter I",
		"✓ [3] Chapter VI",
		"· [2] Chapter IV",
		"Incorrect. The answer is [3].",
		"Explanation: Chapter VI deals",
		"Difficulty: Medium (locked)",
		"[n] next",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[e/m/h]") {
		t.Fatalf("difficulty prompt shown while locked:\n%s", out)
	}
}

func TestRenderAnsweredCorrect(t *testing.T) {
	s, _ := quiz.Reduce(presented(t, 2), quiz.SelectOption(2))
	out := render(t, s)
	if !strings.Contains(out, "Correct!") || !strings.Contains(out, "Streak: 1") || !strings.Contains(out, "[e/m/h] difficulty") {
		t.Fatalf("unexpected screen:\n%s", out)
	}
	if strings.Contains(out, "✗") {
		t.Fatalf("no option may be marked wrong:\n%s", out)
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		kind quiz.IntentKind
		opt  int
		diff quiz.Difficulty
	}{
		{"1", quiz.IntentSelectOption, 0, ""},
		{" 4 ", quiz.IntentSelectOption, 3, ""},
		{"n", quiz.IntentRequestQuestion, 0, ""},
		{"R", quiz.IntentRetry, 0, ""},
		{"h", quiz.IntentChangeDifficulty, 0, quiz.Hard},
		{"easy", quiz.IntentChangeDifficulty, 0, quiz.Easy},
	}
	for _, tc := range cases {
		in, err := ParseCommand(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if in.Kind != tc.kind || in.Option != tc.opt || in.Difficulty != tc.diff {
			t.Fatalf("%q: intent=%+v", tc.in, in)
		}
	}
	for _, bad := range []string{"0", "5", "x"} {
		if _, err := ParseCommand(bad); err == nil || errors.Is(err, errQuit) {
			t.Fatalf("%q: expected parse error, got %v", bad, err)
		}
	}
	if _, err := ParseCommand("q"); !errors.Is(err, errQuit) {
		t.Fatalf("q should quit")
	}
}

type recordingDispatcher struct {
	mu      sync.Mutex
	session quiz.Session
	intents []quiz.Intent
}

func (r *recordingDispatcher) Dispatch(_ context.Context, in quiz.Intent) quiz.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
	r.session, _ = quiz.Reduce(r.session, in)
	return r.session
}

func (r *recordingDispatcher) Snapshot() quiz.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func TestRunDispatchesUntilQuit(t *testing.T) {
	d := &recordingDispatcher{session: presented(t, 1)}
	var out bytes.Buffer
	ui := New(&out, ref)

	err := ui.Run(context.Background(), strings.NewReader("2\n9\n3\nq\nn\n"), d)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(d.intents) != 2 {
		t.Fatalf("intents=%+v", d.intents)
	}
	if d.intents[0].Kind != quiz.IntentSelectOption || d.intents[0].Option != 1 {
		t.Fatalf("first intent=%+v", d.intents[0])
	}
	if d.Snapshot().Streak != 1 {
		t.Fatalf("streak=%d", d.Snapshot().Streak)
	}
	if !strings.Contains(out.String(), "choose an option between 1 and 4") {
		t.Fatalf("missing range notice:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "select_option is not available right now") {
		t.Fatalf("second answer should be reported as ignored:\n%s", out.String())
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	d := &recordingDispatcher{session: presented(t, 0)}
	ui := New(&bytes.Buffer{}, ref)
	if err := ui.Run(context.Background(), strings.NewReader(""), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
