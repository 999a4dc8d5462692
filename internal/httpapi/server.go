package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/tpmaster/internal/config"
	"github.com/yungbote/tpmaster/internal/observability"
	"github.com/yungbote/tpmaster/internal/platform/logger"
)

func NewServer(cfg *config.Config, log *logger.Logger, gen QuestionGenerator, metrics *observability.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           NewRouter(cfg, log, gen, metrics),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		// Generation has no deadline of its own.
		WriteTimeout: 0,
	}
}

// NewRouter mounts the question endpoint and probes. metrics may be nil.
func NewRouter(cfg *config.Config, log *logger.Logger, gen QuestionGenerator, metrics *observability.Metrics) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(Recover(log))
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(AttachTraceContext())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.CORS.AllowOrigins))
	r.Use(Metrics(metrics))

	health := NewHealthHandler(gen)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	generate := NewGenerateHandler(log, gen, cfg.HTTP.MaxRequestBytes)
	r.POST(cfg.HTTP.GeneratePath, generate.Generate)

	r.NoMethod(func(c *gin.Context) {
		RespondError(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "Not Found")
	})
	return r
}
