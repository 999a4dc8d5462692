package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/tpmaster/internal/quiz"
)

// HTTPError is a non-2xx answer from the question endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

func (e *HTTPError) IsRateLimited() bool {
	return e != nil && e.StatusCode == http.StatusTooManyRequests
}

// Is lets callers match a 429 with errors.Is(err, quiz.ErrRateLimited).
func (e *HTTPError) Is(target error) bool {
	if target == quiz.ErrRateLimited {
		return e.IsRateLimited()
	}
	return false
}

func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error) != "" {
		return &HTTPError{
			StatusCode: status,
			Message:    strings.TrimSpace(env.Error),
			Body:       body,
		}
	}
	return &HTTPError{StatusCode: status, Body: body}
}
