package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/tpmaster/internal/client"
	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/controller"
	"github.com/yungbote/tpmaster/internal/generator"
	"github.com/yungbote/tpmaster/internal/platform/envutil"
	"github.com/yungbote/tpmaster/internal/platform/logger"
	"github.com/yungbote/tpmaster/internal/platform/shutdown"
	"github.com/yungbote/tpmaster/internal/quiz"
	"github.com/yungbote/tpmaster/internal/terminal"
)

func main() {
	defaultTimeout, err := envutil.Duration("TPM_CLIENT_TIMEOUT", 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	endpoint := flag.String("url", envutil.String("TPM_API_URL", client.DefaultEndpoint), "question endpoint")
	timeout := flag.Duration("timeout", defaultTimeout, "per-question timeout (0 waits indefinitely)")
	local := flag.Bool("local", false, "generate questions in-process instead of calling the server")
	useMock := flag.Bool("mock", false, "with -local, use the offline mock engine")
	logMode := flag.String("log", "off", "log mode: off, development or production (logs go to stderr)")
	flag.Parse()

	log, err := logger.New(*logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	source, err := buildSource(log, *endpoint, *timeout, *local, *useMock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	cat := quiz.DefaultCatalogue()
	ui := terminal.New(os.Stdout, cat.Reference())
	ctrl := controller.New(source,
		controller.WithLogger(log),
		controller.WithCatalogue(cat),
		controller.WithOnChange(ui.Render),
	)
	ctrl.Start(ctx)

	if err := ui.Run(ctx, os.Stdin, ctrl); err != nil {
		fmt.Fprintf(os.Stderr, "input: %v\n", err)
		os.Exit(1)
	}
}

func buildSource(log *logger.Logger, endpoint string, timeout time.Duration, local, useMock bool) (controller.Source, error) {
	if !local && !useMock {
		c, err := client.New(client.Options{Endpoint: endpoint, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if useMock {
		cfg.Engine.Type = config.EngineMock
	}
	if timeout > 0 {
		cfg.Engine.Timeout = timeout
	}
	gen, err := generator.New(log, cfg.Engine)
	if err != nil {
		return nil, err
	}
	if err := gen.Ready(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: GEMINI_API_KEY is not set; run with -mock to play offline")
	}
	return gen, nil
}
