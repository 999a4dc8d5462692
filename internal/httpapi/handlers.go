package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tpmaster/internal/generator"
	"github.com/yungbote/tpmaster/internal/platform/ctxutil"
	"github.com/yungbote/tpmaster/internal/platform/logger"
	"github.com/yungbote/tpmaster/internal/quiz"
)

// QuestionGenerator is the question source behind the HTTP endpoint.
type QuestionGenerator interface {
	Generate(ctx context.Context, req quiz.Request) (*quiz.Question, error)
	// Ready returns the error every Generate call would currently fail with.
	Ready() error
}

type GenerateHandler struct {
	log      *logger.Logger
	gen      QuestionGenerator
	maxBytes int64
}

func NewGenerateHandler(log *logger.Logger, gen QuestionGenerator, maxBytes int64) *GenerateHandler {
	return &GenerateHandler{log: log.With("handler", "generate"), gen: gen, maxBytes: maxBytes}
}

type generateRequest struct {
	ChapterTitle          string `json:"chapterTitle"`
	Difficulty            string `json:"difficulty"`
	DifficultyDescription string `json:"difficultyDescription"`
}

const msgInvalidBody = "Invalid request body"

// POST /api/generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	if err := h.gen.Ready(); err != nil {
		RespondAPIError(c, err)
		return
	}

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	var body generateRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("rejecting request body", append([]interface{}{"error", err}, ctxutil.LogFields(c.Request.Context())...)...)
		RespondError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if strings.TrimSpace(body.ChapterTitle) == "" || strings.TrimSpace(body.Difficulty) == "" {
		RespondError(c, http.StatusBadRequest, generator.MsgMissingFields)
		return
	}
	difficulty, err := quiz.ParseDifficulty(body.Difficulty)
	if err != nil {
		RespondAPIError(c, generator.RequestError(err))
		return
	}

	q, err := h.gen.Generate(c.Request.Context(), quiz.Request{
		Topic:          strings.TrimSpace(body.ChapterTitle),
		Difficulty:     difficulty,
		DifficultyHint: strings.TrimSpace(body.DifficultyDescription),
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type HealthHandler struct {
	gen QuestionGenerator
}

func NewHealthHandler(gen QuestionGenerator) *HealthHandler { return &HealthHandler{gen: gen} }

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Readyz fails while the generator cannot serve requests.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if err := h.gen.Ready(); err != nil {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ok")
}
