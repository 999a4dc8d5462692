package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/tpmaster/internal/platform/envutil"
	"github.com/yungbote/tpmaster/internal/quiz"
)

const DefaultEndpoint = "http://localhost:3000/api/generate"

type Options struct {
	// Endpoint is the full URL of the question route.
	Endpoint string
	// Zero means wait for as long as the server takes.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client asks the proxy for one question per call. It never retries; a
// failed call is reported and left to the user.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("endpoint required")
	}
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: hc,
	}, nil
}

func NewFromEnv() (*Client, error) {
	timeout, err := envutil.Duration("TPM_CLIENT_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Endpoint: envutil.String("TPM_API_URL", DefaultEndpoint),
		Timeout:  timeout,
	})
}

func (c *Client) Endpoint() string { return c.endpoint }

type generateRequest struct {
	ChapterTitle          string `json:"chapterTitle"`
	Difficulty            string `json:"difficulty"`
	DifficultyDescription string `json:"difficultyDescription"`
}

func (c *Client) FetchQuestion(ctx context.Context, req quiz.Request) (*quiz.Question, error) {
	body := generateRequest{
		ChapterTitle:          req.Topic,
		Difficulty:            req.Difficulty.String(),
		DifficultyDescription: req.DifficultyHint,
	}
	var q quiz.Question
	if err := c.doJSON(ctx, http.MethodPost, body, &q); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrMalformedQuestion, err)
	}
	return &q, nil
}

func (c *Client) doJSON(ctx context.Context, method string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx2 := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx2, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx2, method, c.endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", quiz.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %w", quiz.ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", quiz.ErrMalformedQuestion, err)
	}
	return nil
}

