package mock

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/tpmaster/internal/generator/engine"
)

// Engine answers every prompt with a well-formed question derived from the
// topic and difficulty it finds in the last user message. Output is stable
// for a given prompt.
type Engine struct {
	// Err, when set, is returned instead of a completion.
	Err error
}

func New() *Engine {
	return &Engine{}
}

var (
	topicLine      = regexp.MustCompile(`(?m)question for:\s*(.+?)\.?\s*$`)
	difficultyLine = regexp.MustCompile(`(?m)^\s*Difficulty Level:\s*(.+?)\.?\s*$`)
)

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	_ = model
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.Err != nil {
		return "", e.Err
	}

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			user = messages[i].Content
			break
		}
	}
	topic := "the arm's length principle"
	if m := topicLine.FindStringSubmatch(user); m != nil {
		topic = strings.TrimSpace(m[1])
	}
	difficulty := "Medium"
	if m := difficultyLine.FindStringSubmatch(user); m != nil {
		difficulty = strings.TrimSpace(m[1])
	}

	h := sha256.Sum256([]byte(user))
	correct := int(h[0] % 4)

	options := []string{
		"Apply the comparable uncontrolled price method without adjustment",
		"Delineate the actual transaction before selecting a method",
		"Rely on the contractual terms alone",
		"Use a global formulary apportionment",
	}
	options[correct], options[1] = options[1], options[correct]

	out := map[string]any{
		"questionText":       fmt.Sprintf("[%s] Which step comes first when analysing a controlled transaction under %s?", difficulty, topic),
		"options":            options,
		"correctOptionIndex": correct,
		"explanation":        "The Guidelines require accurate delineation of the actual transaction, considering the economically relevant characteristics, before any method is selected.",
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	_ = opts
	return string(b), nil
}
