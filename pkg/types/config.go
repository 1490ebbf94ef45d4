package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds every remote request, including the health check.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kol-analytics/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig holds settings for the source resilience layer.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the remote API root (e.g. "http://localhost:8000").
	// Empty disables the remote and the loader always uses the fallback.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// LoadTimeout bounds a whole load cycle (default 10s).
	LoadTimeout time.Duration `json:"load_timeout" yaml:"load_timeout" mapstructure:"load_timeout"`

	// FallbackPath is a JSON, YAML or SQLite bundle used when the remote is
	// unavailable. Empty uses the embedded bundle.
	FallbackPath string `json:"fallback_path" yaml:"fallback_path" mapstructure:"fallback_path"`
}

// EngineConfig holds settings for the statistics and query engines.
type EngineConfig struct {
	// TopCountries is the length of the country distribution (default 10).
	TopCountries int `json:"top_countries" yaml:"top_countries" mapstructure:"top_countries"`

	// PageSize is the default query page size (default 10).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`
}

// Config groups all component configurations.
type Config struct {
	Source SourceConfig `json:"source" yaml:"source" mapstructure:"source"`
	Engine EngineConfig `json:"engine" yaml:"engine" mapstructure:"engine"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
}

// Defaults used when a config value is zero.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultLoadTimeout  = 10 * time.Second
	DefaultMaxRetries   = 2
	DefaultTopCountries = 10
	DefaultPageSize     = 10
	DefaultAddr         = ":8000"
	DefaultUserAgent    = "kol-analytics/0.1"
)

// DefaultCORSOrigins are the local development front-end origins.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:8080",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8080",
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = DefaultTimeout
	}
	if c.Source.LoadTimeout <= 0 {
		c.Source.LoadTimeout = DefaultLoadTimeout
	}
	if c.Source.MaxRetries <= 0 {
		c.Source.MaxRetries = DefaultMaxRetries
	}
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = DefaultUserAgent
	}
	if c.Engine.TopCountries <= 0 {
		c.Engine.TopCountries = DefaultTopCountries
	}
	if c.Engine.PageSize <= 0 {
		c.Engine.PageSize = DefaultPageSize
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	return c
}
