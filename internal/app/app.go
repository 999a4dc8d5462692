package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/generator"
	"github.com/yungbote/tpmaster/internal/httpapi"
	"github.com/yungbote/tpmaster/internal/observability"
	"github.com/yungbote/tpmaster/internal/platform/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type App struct {
	Log    *logger.Logger
	Config *config.Config

	server       *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	gen, err := generator.New(log, cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}
	gen.WithMetrics(metrics)
	if cfg.MissingCredentials() {
		log.Warn("GEMINI_API_KEY is not set; question requests will fail until it is configured")
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Tracing, cfg.Env, Version)

	return &App{
		Log:          log,
		Config:       cfg,
		server:       httpapi.NewServer(cfg, log, gen, metrics),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.HTTP.Addr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("server listening",
			"addr", ln.Addr().String(),
			"engine", a.Config.Engine.Type,
			"model", a.Config.Engine.Model,
			"generate_path", a.Config.HTTP.GeneratePath,
		)
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer cancel()
		a.Log.Info("shutting down")
		err := a.server.Shutdown(shutdownCtx)
		if otelErr := a.otelShutdown(shutdownCtx); otelErr != nil {
			a.Log.Warn("otel shutdown failed", "error", otelErr)
		}
		return err
	})

	err := g.Wait()
	a.Log.Sync()
	return err
}
