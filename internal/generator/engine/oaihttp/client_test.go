package oaihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/generator/engine"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, v any) *http.Response {
	b, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
}

var questionSchema = &engine.JSONSchema{
	Name: "quiz_question",
	Schema: map[string]any{
		"type":     "object",
		"required": []string{"questionText"},
	},
	Strict: true,
}

func testConfig(mode string, retries int) config.EngineConfig {
	return config.EngineConfig{
		Type:                config.EngineOAIHTTP,
		BaseURL:             "http://upstream/v1beta/openai/",
		ChatCompletionsPath: "/chat/completions",
		APIKey:              "secret",
		JSONSchema: config.JSONSchemaConfig{
			Mode:           mode,
			MaxRetries:     retries,
			MaxPromptBytes: 4096,
		},
	}
}

var messages = []engine.Message{
	{Role: "system", Content: "You are an exam setter."},
	{Role: "user", Content: "Topic: Chapter I"},
}

func TestGenerateText_JSONSchemaRequest(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/v1beta/openai/chat/completions" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer secret" {
				t.Fatalf("authorization=%q", got)
			}
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if payload["model"] != "gemini-2.5-flash" {
				t.Fatalf("model=%v", payload["model"])
			}
			rf, _ := payload["response_format"].(map[string]any)
			if rf["type"] != "json_schema" {
				t.Fatalf("response_format=%v", payload["response_format"])
			}
			js, _ := rf["json_schema"].(map[string]any)
			if js["name"] != "quiz_question" || js["schema"] == nil {
				t.Fatalf("json_schema=%v", js)
			}
			return jsonResponse(http.StatusOK, completion("```json\n{\"questionText\":\"q\"}\n```")), nil
		}),
	}

	e, err := NewWithHTTPClient(testConfig("json_schema", 0), client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	out, err := e.GenerateText(context.Background(), "gemini-2.5-flash", messages, engine.GenerateOptions{JSONSchema: questionSchema})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"questionText":"q"}` {
		t.Fatalf("fence not stripped: %q", out)
	}
}

func TestGenerateText_RetriesInvalidJSON(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return jsonResponse(http.StatusOK, completion("not json")), nil
			}
			return jsonResponse(http.StatusOK, completion(`{"questionText":"q"}`)), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig("json_schema", 1), client)
	out, err := e.GenerateText(context.Background(), "m", messages, engine.GenerateOptions{JSONSchema: questionSchema})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"questionText":"q"}` || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("out=%q calls=%d", out, calls)
	}
}

func TestGenerateText_InvalidJSONWithoutRetries(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, completion("Sure! Here is a question.")), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig("json_schema", 0), client)
	_, err := e.GenerateText(context.Background(), "m", messages, engine.GenerateOptions{JSONSchema: questionSchema})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestGenerateText_RateLimitIsNotRetried(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return jsonResponse(http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "Resource has been exhausted (e.g. check quota)."},
			}), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig("json_schema", 3), client)
	_, err := e.GenerateText(context.Background(), "m", messages, engine.GenerateOptions{JSONSchema: questionSchema})

	var he *HTTPError
	if !errors.As(err, &he) || !he.RateLimited() {
		t.Fatalf("expected rate-limited HTTPError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestGenerateText_AutoFallsBackToPrompt(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			n := atomic.AddInt32(&calls, 1)
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			msgs, _ := payload["messages"].([]any)
			if n == 1 {
				if _, ok := payload["response_format"]; !ok {
					t.Fatalf("expected response_format on first attempt")
				}
				return jsonResponse(http.StatusBadRequest, map[string]any{"error": "response_format unsupported"}), nil
			}
			if _, ok := payload["response_format"]; ok {
				t.Fatalf("prompt mode must not send response_format")
			}
			if len(msgs) != 3 {
				t.Fatalf("expected schema system message appended, got %d messages", len(msgs))
			}
			return jsonResponse(http.StatusOK, completion(`{"questionText":"q"}`)), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig("auto", 0), client)
	if _, err := e.GenerateText(context.Background(), "m", messages, engine.GenerateOptions{JSONSchema: questionSchema}); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestGenerateText_GuidedJSON(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if _, ok := payload["guided_json"]; !ok {
				t.Fatalf("expected guided_json")
			}
			return jsonResponse(http.StatusOK, completion(`{"questionText":"q"}`)), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig("guided_json", 0), client)
	if _, err := e.GenerateText(context.Background(), "m", messages, engine.GenerateOptions{JSONSchema: questionSchema}); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
}

func TestSanitizeJSONText(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                   `{"a":1}`,
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"  ```\n{\"a\":1}\n```  \n": `{"a":1}`,
	}
	for in, want := range cases {
		if got := sanitizeJSONText(in); got != want {
			t.Fatalf("sanitizeJSONText(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.EngineConfig{Type: config.EngineOAIHTTP}); err == nil {
		t.Fatalf("expected error without base_url")
	}
}
