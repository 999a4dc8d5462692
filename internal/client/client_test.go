package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/tpmaster/internal/quiz"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newClient(t *testing.T, rt roundTripperFunc) *Client {
	t.Helper()
	c, err := New(Options{Endpoint: "http://proxy/api/generate", HTTPClient: &http.Client{Transport: rt}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

var mediumRequest = quiz.Request{
	Topic:          "Chapter II: Transfer Pricing Methods",
	Difficulty:     quiz.Medium,
	DifficultyHint: "Generate a Medium question.",
}

func TestFetchQuestionSendsContract(t *testing.T) {
	c := newClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/generate" {
			t.Fatalf("unexpected %s %s", req.Method, req.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["chapterTitle"] != mediumRequest.Topic || body["difficulty"] != "Medium" || body["difficultyDescription"] != mediumRequest.DifficultyHint {
			t.Fatalf("body=%v", body)
		}
		return respond(200, `{"questionText":"Q","options":["a","b","c","d"],"correctOptionIndex":1,"explanation":"E"}`), nil
	})

	q, err := c.FetchQuestion(context.Background(), mediumRequest)
	if err != nil {
		t.Fatalf("FetchQuestion: %v", err)
	}
	if q.Text != "Q" || q.CorrectIndex != 1 || len(q.Options) != 4 || q.Explanation != "E" {
		t.Fatalf("question=%+v", q)
	}
}

func TestFetchQuestionErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		rateLimit bool
		malformed bool
	}{
		{"rate limited", 429, `{"error":"API Limit Exceeded"}`, true, false},
		{"missing key", 500, `{"error":"Server configuration error: Missing API Key"}`, false, false},
		{"bad request", 400, `{"error":"Missing required fields: chapterTitle or difficulty"}`, false, false},
		{"html error page", 502, `<html>bad gateway</html>`, false, false},
		{"not a question", 200, `{"questionText":"Q","options":["a"],"correctOptionIndex":0,"explanation":"E"}`, false, true},
		{"not json", 200, `oops`, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, func(*http.Request) (*http.Response, error) {
				return respond(tc.status, tc.body), nil
			})
			_, err := c.FetchQuestion(context.Background(), mediumRequest)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, quiz.ErrRateLimited); got != tc.rateLimit {
				t.Fatalf("rate limited=%v want %v (%v)", got, tc.rateLimit, err)
			}
			if got := errors.Is(err, quiz.ErrMalformedQuestion); got != tc.malformed {
				t.Fatalf("malformed=%v want %v (%v)", got, tc.malformed, err)
			}
			if tc.status != 200 {
				var he *HTTPError
				if !errors.As(err, &he) || he.StatusCode != tc.status {
					t.Fatalf("expected HTTPError %d, got %v", tc.status, err)
				}
			}
		})
	}
}

func TestFetchQuestionRateLimitMapsToDistinctFailure(t *testing.T) {
	c := newClient(t, func(*http.Request) (*http.Response, error) {
		return respond(429, `{"error":"API Limit Exceeded"}`), nil
	})
	_, err := c.FetchQuestion(context.Background(), mediumRequest)
	if f := quiz.FailureFromError(err); f.Kind != quiz.FailureRateLimited {
		t.Fatalf("failure=%+v", f)
	}
}

func TestFetchQuestionTransportFailure(t *testing.T) {
	c := newClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := c.FetchQuestion(context.Background(), mediumRequest)
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Fatalf("err=%v", err)
	}
	if f := quiz.FailureFromError(err); f.Kind != quiz.FailureGeneric {
		t.Fatalf("failure=%+v", f)
	}
}

func TestFetchQuestionAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questionText":"Q","options":["a","b","c","d"],"correctOptionIndex":3,"explanation":"E"}`))
	}))
	defer srv.Close()

	c, err := New(Options{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q, err := c.FetchQuestion(context.Background(), mediumRequest)
	if err != nil {
		t.Fatalf("FetchQuestion: %v", err)
	}
	if q.CorrectIndex != 3 {
		t.Fatalf("question=%+v", q)
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error")
	}
}
