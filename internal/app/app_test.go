package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/tpmaster/internal/client"
	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/controller"
	"github.com/yungbote/tpmaster/internal/platform/logger"
	"github.com/yungbote/tpmaster/internal/quiz"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func mockConfig() *config.Config {
	return &config.Config{
		Env: "test",
		HTTP: config.HTTPConfig{
			Addr:              "127.0.0.1:0",
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   2 * time.Second,
			MaxRequestBytes:   64 << 10,
			GeneratePath:      "/api/generate",
		},
		Engine:  config.EngineConfig{Type: config.EngineMock, Model: "mock"},
		CORS:    config.CORSConfig{AllowOrigins: []string{"*"}},
		Tracing: config.TracingConfig{ServiceName: "tpmaster-test"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// A Hard request through the real server and client yields a question whose
// correct option raises the streak.
func TestEndToEndHardQuestion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewWithConfig(ctx, mockConfig(), newTestLogger(t))
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	cl, err := client.New(client.Options{Endpoint: "http://" + ln.Addr().String() + "/api/generate", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	ctrl := controller.New(cl, controller.WithLogger(newTestLogger(t)))

	ctrl.Start(ctx)
	ctrl.Wait()
	if s := ctrl.Dispatch(ctx, quiz.ChangeDifficulty(quiz.Hard)); s.Phase != quiz.PhaseLoading {
		t.Fatalf("unexpected state after difficulty change: %+v", s)
	}
	ctrl.Wait()

	s := ctrl.Snapshot()
	if s.Phase != quiz.PhasePresented || s.Difficulty != quiz.Hard {
		t.Fatalf("state=%+v lastError=%+v", s, s.LastError)
	}
	if len(s.Question.Options) != 4 || s.Question.CorrectIndex < 0 || s.Question.CorrectIndex > 3 {
		t.Fatalf("question=%+v", s.Question)
	}
	before := s.Streak
	s = ctrl.Dispatch(ctx, quiz.SelectOption(s.Question.CorrectIndex))
	if s.Streak != before+1 || s.Phase != quiz.PhaseAnswered {
		t.Fatalf("state=%+v", s)
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if want := `tpmaster_generations_total{model="mock",difficulty="Hard",outcome="ok"} 1`; !strings.Contains(string(body), want) {
		t.Fatalf("missing %q in:\n%s", want, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
