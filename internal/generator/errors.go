package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/tpmaster/internal/generator/engine/oaihttp"
	"github.com/yungbote/tpmaster/internal/platform/apierr"
	"github.com/yungbote/tpmaster/internal/quiz"
)

// Client-facing messages. Clients match on status, not text.
const (
	MsgMissingAPIKey  = "Server configuration error: Missing API Key"
	MsgMissingFields  = "Missing required fields: chapterTitle or difficulty"
	MsgRateLimited    = "API Limit Exceeded"
	MsgInternal       = "Internal Server Error"
	msgBadDifficulty  = "Unknown difficulty; expected one of: %s"
	codeMissingKey    = "config_missing_api_key"
	codeMissingFields = "missing_fields"
	codeBadDifficulty = "unknown_difficulty"
	codeRateLimited   = "rate_limited"
	codeUpstream      = "upstream_error"
	codeMalformed     = "malformed_output"
)

var ErrMissingAPIKey = errors.New("missing API key")

func missingKeyError() *apierr.Error {
	return apierr.New(http.StatusInternalServerError, codeMissingKey, MsgMissingAPIKey, ErrMissingAPIKey)
}

// RequestError maps a request validation failure to a 400.
func RequestError(err error) *apierr.Error {
	if errors.Is(err, quiz.ErrUnknownDifficulty) {
		return apierr.New(http.StatusBadRequest, codeBadDifficulty, fmt.Sprintf(msgBadDifficulty, difficultyList()), err)
	}
	return apierr.New(http.StatusBadRequest, codeMissingFields, MsgMissingFields, err)
}

func difficultyList() string {
	names := make([]string, 0, 3)
	for _, d := range quiz.Difficulties() {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}

// classify turns an engine failure into the status the proxy reports.
// Rate limiting is recognised by upstream status 429 or by "429"/"Quota"
// anywhere in the error text.
func classify(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if isRateLimited(err) {
		return apierr.New(http.StatusTooManyRequests, codeRateLimited, MsgRateLimited, fmt.Errorf("%w: %w", quiz.ErrRateLimited, err))
	}
	if errors.Is(err, quiz.ErrMalformedQuestion) || errors.Is(err, oaihttp.ErrInvalidOutput) {
		return apierr.New(http.StatusInternalServerError, codeMalformed, MsgInternal, err)
	}
	return apierr.New(http.StatusInternalServerError, codeUpstream, MsgInternal, err)
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, quiz.ErrRateLimited) {
		return true
	}
	var he *oaihttp.HTTPError
	if errors.As(err, &he) && he.RateLimited() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Quota")
}
