package controller

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/yungbote/tpmaster/internal/platform/logger"
	"github.com/yungbote/tpmaster/internal/quiz"
)

// Source produces one question per request. Implemented by the HTTP client
// and by the in-process generator.
type Source interface {
	FetchQuestion(ctx context.Context, req quiz.Request) (*quiz.Question, error)
}

type Option func(*Controller)

func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

func WithRand(r quiz.Rand) Option {
	return func(c *Controller) {
		if r != nil {
			c.rand = r
		}
	}
}

func WithCatalogue(cat *quiz.Catalogue) Option {
	return func(c *Controller) {
		if cat != nil {
			c.catalogue = cat
		}
	}
}

// WithOnChange registers a callback run after every state change, in order,
// while the controller is locked. It must not call back into the controller.
func WithOnChange(fn func(quiz.Session)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns one quiz session. Intents are applied one at a time through
// quiz.Reduce; fetch effects run in their own goroutine and report back as
// completion intents.
type Controller struct {
	mu        sync.Mutex
	session   quiz.Session
	source    Source
	catalogue *quiz.Catalogue
	rand      quiz.Rand // used under mu only
	log       *logger.Logger
	onChange  func(quiz.Session)

	inflight sync.WaitGroup
}

func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		session:   quiz.NewSession(),
		source:    source,
		catalogue: quiz.DefaultCatalogue(),
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "controller")
	return c
}

// Start issues the first question request.
func (c *Controller) Start(ctx context.Context) quiz.Session {
	return c.Dispatch(ctx, quiz.RequestQuestion())
}

// Dispatch applies one intent and returns the resulting state. A fetch effect
// is started before Dispatch returns; ctx bounds that fetch.
func (c *Controller) Dispatch(ctx context.Context, in quiz.Intent) quiz.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.session
	next, fetch := quiz.Reduce(prev, in)
	c.session = next

	if fetch != nil {
		req := c.catalogue.NewRequest(c.rand, fetch.Difficulty)
		c.log.Debug("requesting question",
			"seq", fetch.Seq,
			"topic", req.Topic,
			"difficulty", req.Difficulty,
		)
		c.inflight.Add(1)
		go c.run(ctx, fetch.Seq, req)
	} else if next == prev {
		c.log.Debug("intent ignored", "intent", in.Kind, "phase", prev.Phase)
	}

	if next != prev && c.onChange != nil {
		c.onChange(next)
	}
	return next
}

func (c *Controller) run(ctx context.Context, seq uint64, req quiz.Request) {
	defer c.inflight.Done()

	q, err := c.source.FetchQuestion(ctx, req)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		f := quiz.FailureFromError(err)
		c.log.Warn("question request failed",
			"seq", seq,
			"topic", req.Topic,
			"difficulty", req.Difficulty,
			"kind", f.Kind,
			"error", err,
		)
		c.Dispatch(ctx, quiz.QuestionFailed(seq, f))
		return
	}
	c.Dispatch(ctx, quiz.QuestionLoaded(seq, q))
}

// Snapshot returns the current state. Its Question is shared and must be
// treated as read-only.
func (c *Controller) Snapshot() quiz.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Wait blocks until no fetch is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}
