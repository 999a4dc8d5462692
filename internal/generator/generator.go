package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/generator/engine"
	"github.com/yungbote/tpmaster/internal/generator/engine/mock"
	"github.com/yungbote/tpmaster/internal/generator/engine/oaihttp"
	"github.com/yungbote/tpmaster/internal/observability"
	"github.com/yungbote/tpmaster/internal/platform/apierr"
	"github.com/yungbote/tpmaster/internal/platform/ctxutil"
	"github.com/yungbote/tpmaster/internal/platform/logger"
	"github.com/yungbote/tpmaster/internal/quiz"
)

const tracerName = "github.com/yungbote/tpmaster/internal/generator"

// Generator is the server-side question source: one request in, one
// validated question or a classified *apierr.Error out. It keeps no state
// between calls.
type Generator struct {
	log    *logger.Logger
	engine engine.Engine
	model  string
	// missingKey makes every call fail with a configuration error.
	missingKey bool
	tracer     trace.Tracer
	metrics    *observability.Metrics
}

// New builds the engine named by cfg.Type. A missing API key does not fail
// construction.
func New(log *logger.Logger, cfg config.EngineConfig) (*Generator, error) {
	var (
		eng        engine.Engine
		missingKey bool
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.EngineMock:
		eng = mock.New()
	case config.EngineOAIHTTP, "openai_http", "":
		e, err := oaihttp.New(cfg)
		if err != nil {
			return nil, err
		}
		eng = e
		missingKey = strings.TrimSpace(cfg.APIKey) == ""
	default:
		return nil, fmt.Errorf("unknown engine type %q", cfg.Type)
	}
	g := NewWithEngine(log, eng, cfg.Model)
	g.missingKey = missingKey
	return g, nil
}

func NewWithEngine(log *logger.Logger, eng engine.Engine, model string) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = config.DefaultModel
	}
	return &Generator{
		log:    log.With("component", "generator"),
		engine: eng,
		model:  model,
		tracer: otel.Tracer(tracerName),
	}
}

// WithMetrics records every Generate call in m.
func (g *Generator) WithMetrics(m *observability.Metrics) *Generator {
	g.metrics = m
	return g
}

// Ready reports the configuration error every call would fail with.
func (g *Generator) Ready() error {
	if g.missingKey {
		return missingKeyError()
	}
	return nil
}

func (g *Generator) Generate(ctx context.Context, req quiz.Request) (*quiz.Question, error) {
	ctx, span := g.tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.String("quiz.topic", req.Topic),
		attribute.String("quiz.difficulty", req.Difficulty.String()),
		attribute.String("llm.model", g.model),
	))
	defer span.End()

	start := time.Now()
	q, err := g.generate(ctx, req)
	if err != nil {
		g.metrics.ObserveGeneration(g.model, req.Difficulty.String(), apierr.From(err).Code, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	g.metrics.ObserveGeneration(g.model, req.Difficulty.String(), "ok", time.Since(start))
	span.SetAttributes(attribute.Int("quiz.correct_option_index", q.CorrectIndex))
	return q, nil
}

// FetchQuestion lets the generator back a session controller in-process.
func (g *Generator) FetchQuestion(ctx context.Context, req quiz.Request) (*quiz.Question, error) {
	return g.Generate(ctx, req)
}

func (g *Generator) generate(ctx context.Context, req quiz.Request) (*quiz.Question, error) {
	log := g.log.With(ctxutil.LogFields(ctx)...)

	if g.missingKey {
		log.Error("Missing GEMINI_API_KEY environment variable")
		return nil, missingKeyError()
	}
	if err := req.Validate(); err != nil {
		return nil, RequestError(err)
	}

	start := time.Now()
	text, err := g.engine.GenerateText(ctx, g.model, buildMessages(req), engine.GenerateOptions{
		JSONSchema: questionSchema(),
	})
	if err != nil {
		ae := classify(err)
		log.Warn("question generation failed",
			"topic", req.Topic,
			"difficulty", req.Difficulty,
			"status", ae.Status,
			"code", ae.Code,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, ae
	}

	q, err := parseQuestion(text)
	if err != nil {
		log.Warn("question output rejected",
			"topic", req.Topic,
			"difficulty", req.Difficulty,
			"error", err,
		)
		return nil, classify(err)
	}

	log.Debug("question generated",
		"topic", req.Topic,
		"difficulty", req.Difficulty,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return q, nil
}

func parseQuestion(text string) (*quiz.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", quiz.ErrMalformedQuestion)
	}
	var q quiz.Question
	if err := json.Unmarshal([]byte(text), &q); err != nil {
		return nil, fmt.Errorf("%w: %v", quiz.ErrMalformedQuestion, err)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrMalformedQuestion, err)
	}
	return &q, nil
}
