package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/yungbote/tpmaster/internal/quiz"
)

// Dispatcher is the part of the session controller the loop drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, in quiz.Intent) quiz.Session
	Snapshot() quiz.Session
}

var errQuit = errors.New("quit")

// ParseCommand maps one input line to an intent. It returns errQuit for
// q/quit and a descriptive error for anything it does not recognise.
func ParseCommand(line string) (quiz.Intent, error) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "q", "quit", "exit":
		return quiz.Intent{}, errQuit
	case "n", "next":
		return quiz.Next(), nil
	case "r", "retry":
		return quiz.Retry(), nil
	case "e", "easy":
		return quiz.ChangeDifficulty(quiz.Easy), nil
	case "m", "medium":
		return quiz.ChangeDifficulty(quiz.Medium), nil
	case "h", "hard":
		return quiz.ChangeDifficulty(quiz.Hard), nil
	}
	if n, err := strconv.Atoi(cmd); err == nil {
		if n < 1 || n > quiz.OptionCount {
			return quiz.Intent{}, fmt.Errorf("choose an option between 1 and %d", quiz.OptionCount)
		}
		return quiz.SelectOption(n - 1), nil
	}
	return quiz.Intent{}, fmt.Errorf("unknown command %q", cmd)
}

// UI serialises screen writes from the input loop and from controller
// callbacks.
type UI struct {
	mu        sync.Mutex
	out       io.Writer
	reference string
}

func New(out io.Writer, reference string) *UI {
	return &UI{out: out, reference: reference}
}

// Render redraws the screen. Safe to use as the controller's change callback.
func (u *UI) Render(s quiz.Session) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_ = Render(u.out, s, u.reference)
}

func (u *UI) notice(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands from in until q, EOF or ctx is done. Commands the
// current state does not accept are ignored by the controller, which leaves
// the screen unchanged.
func (u *UI) Run(ctx context.Context, in io.Reader, d Dispatcher) error {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				u.Render(d.Snapshot())
				continue
			}
			intent, err := ParseCommand(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				u.notice("%s", err)
				continue
			}
			before := d.Snapshot()
			if after := d.Dispatch(ctx, intent); after == before {
				u.notice("%s is not available right now", intent.Kind)
			}
		}
	}
}
