package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

// Load reads .env files, an optional config file and the environment.
// A missing API key is not an error here; see MissingCredentials.
func Load() (*Config, error) {
	if err := loadDotEnv("../.env", ".env"); err != nil {
		return nil, err
	}
	return load(viper.New())
}

// loadDotEnv never overrides variables that are already set, so earlier
// files win over later ones.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func load(v *viper.Viper) (*Config, error) {
	if p := strings.TrimSpace(os.Getenv("TPM_CONFIG_PATH")); p != "" {
		v.SetConfigFile(p)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("TPM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "TPM_ENV", "LOG_MODE")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("engine.api_key", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("engine.model", "TPM_ENGINE_MODEL", "TPM_MODEL")
	_ = v.BindEnv("cors.allow_origins", "TPM_CORS_ORIGINS")
	_ = v.BindEnv("tracing.enabled", "OTEL_ENABLED")
	_ = v.BindEnv("tracing.sample_ratio", "OTEL_SAMPLER_RATIO")
	_ = v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("tracing.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	_ = v.BindEnv("tracing.headers", "OTEL_EXPORTER_OTLP_HEADERS")
	_ = v.BindEnv("metrics.enabled", "METRICS_ENABLED")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// PORT is the conventional hosting variable; an explicit address wins.
	if port := strings.TrimSpace(v.GetString("port")); port != "" && strings.TrimSpace(os.Getenv("TPM_HTTP_ADDR")) == "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.idle_timeout", 2*time.Minute)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("http.max_request_bytes", int64(64<<10))
	v.SetDefault("http.generate_path", "/api/generate")

	v.SetDefault("engine.type", EngineOAIHTTP)
	v.SetDefault("engine.base_url", DefaultBaseURL)
	v.SetDefault("engine.chat_completions_path", "/chat/completions")
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.model", DefaultModel)
	v.SetDefault("engine.timeout", time.Duration(0))
	v.SetDefault("engine.json_schema.mode", "json_schema")
	v.SetDefault("engine.json_schema.max_retries", 0)
	v.SetDefault("engine.json_schema.max_prompt_bytes", 64<<10)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "tpmaster")
	v.SetDefault("tracing.sample_ratio", 0.1)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.headers", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func normalize(cfg *Config) error {
	cfg.Env = strings.TrimSpace(cfg.Env)
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":3000"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 64 << 10
	}
	cfg.HTTP.GeneratePath = strings.TrimSpace(cfg.HTTP.GeneratePath)
	if cfg.HTTP.GeneratePath == "" {
		cfg.HTTP.GeneratePath = "/api/generate"
	}
	if !strings.HasPrefix(cfg.HTTP.GeneratePath, "/") {
		return fmt.Errorf("http.generate_path must start with '/': %q", cfg.HTTP.GeneratePath)
	}

	e := &cfg.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.ChatCompletionsPath = strings.TrimSpace(e.ChatCompletionsPath)
	e.APIKey = strings.TrimSpace(e.APIKey)
	e.Model = strings.TrimSpace(e.Model)

	switch e.Type {
	case "", "oai_http", "openai_http":
		// Normalize type (avoid implying OpenAI-as-provider).
		e.Type = EngineOAIHTTP
		if e.BaseURL == "" {
			return errors.New("engine.base_url is required for oai_http")
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/chat/completions"
		}
		if e.Model == "" {
			e.Model = DefaultModel
		}
	case EngineMock:
	default:
		return fmt.Errorf("invalid engine.type=%q", e.Type)
	}
	if e.Timeout < 0 {
		return errors.New("invalid engine.timeout")
	}

	e.JSONSchema.Mode = strings.ToLower(strings.TrimSpace(e.JSONSchema.Mode))
	switch e.JSONSchema.Mode {
	case "":
		e.JSONSchema.Mode = "json_schema"
	case "auto", "json_schema", "guided_json", "prompt", "none":
	default:
		return fmt.Errorf("invalid engine.json_schema.mode=%q", e.JSONSchema.Mode)
	}
	if e.JSONSchema.MaxRetries < 0 {
		return errors.New("invalid engine.json_schema.max_retries")
	}
	if e.JSONSchema.MaxPromptBytes < 0 {
		return errors.New("invalid engine.json_schema.max_prompt_bytes")
	}
	if e.JSONSchema.MaxPromptBytes == 0 {
		e.JSONSchema.MaxPromptBytes = 64 << 10
	}

	origins := cfg.CORS.AllowOrigins[:0]
	for _, o := range cfg.CORS.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg.CORS.AllowOrigins = origins

	if cfg.Tracing.SampleRatio < 0 {
		cfg.Tracing.SampleRatio = 0
	}
	if cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = 1
	}
	if strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		cfg.Tracing.ServiceName = "tpmaster"
	}

	cfg.Metrics.Path = strings.TrimSpace(cfg.Metrics.Path)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics.path=%q", cfg.Metrics.Path)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == cfg.HTTP.GeneratePath {
		return errors.New("metrics.path must differ from http.generate_path")
	}
	return nil
}
