package config

import "time"

const (
	EngineOAIHTTP = "oai_http"
	EngineMock    = "mock"
)

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestBytes   int64         `mapstructure:"max_request_bytes"`
	// GeneratePath is where the question endpoint is mounted.
	GeneratePath string `mapstructure:"generate_path"`
}

type JSONSchemaConfig struct {
	// Mode controls how structured output is requested upstream.
	// - "json_schema": OpenAI-style response_format with the schema
	// - "guided_json": vLLM-style guided decoding fields
	// - "prompt": schema text appended to the system prompt
	// - "auto": json_schema, then prompt when the upstream rejects it
	// - "none": ask for JSON in the prompt only
	Mode string `mapstructure:"mode"`

	// Additional attempts when the output is not valid JSON. Total attempts = 1 + MaxRetries.
	MaxRetries int `mapstructure:"max_retries"`

	MaxPromptBytes int `mapstructure:"max_prompt_bytes"`
}

type EngineConfig struct {
	Type string `mapstructure:"type"`

	BaseURL             string `mapstructure:"base_url"`
	ChatCompletionsPath string `mapstructure:"chat_completions_path"`

	// APIKey is sent as a bearer token. Loaded from GEMINI_API_KEY or API_KEY.
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`

	// Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	JSONSchema JSONSchemaConfig `mapstructure:"json_schema"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// TracingConfig feeds the OpenTelemetry bootstrap. With no endpoint, spans go to stdout.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	// Headers is "k=v,k2=v2".
	Headers string `mapstructure:"headers"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type Config struct {
	Env     string        `mapstructure:"env"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Engine  EngineConfig  `mapstructure:"engine"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MissingCredentials reports whether the configured engine needs an API key
// that was not provided. The server still starts; every generate call fails.
func (c *Config) MissingCredentials() bool {
	if c == nil {
		return true
	}
	return c.Engine.Type == EngineOAIHTTP && c.Engine.APIKey == ""
}
