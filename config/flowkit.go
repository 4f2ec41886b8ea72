package config

import (
	"net"
	"strconv"
	"time"

	"github.com/kbukum/flowkit/cache"
	"github.com/kbukum/flowkit/executor"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/security"
	"github.com/kbukum/flowkit/validation"
)

// Config is the complete flowkit configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// CacheConfig sizes the result cache.
type CacheConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes" validate:"gte=0"`
}

// EngineConfig tunes scheduling and executor calls.
type EngineConfig struct {
	// MaxParallel bounds concurrent executor calls; 0 is unbounded.
	MaxParallel  int           `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	TextTimeout  time.Duration `yaml:"text_timeout" mapstructure:"text_timeout" validate:"gt=0"`
	MediaTimeout time.Duration `yaml:"media_timeout" mapstructure:"media_timeout" validate:"gt=0"`
	// RetryEnabled wraps every executor in resilience.Retry.
	RetryEnabled bool                   `yaml:"retry_enabled" mapstructure:"retry_enabled"`
	Retry        resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port" validate:"gte=0,max=65535"`
	Mode            string        `yaml:"mode" mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// TLS serves HTTPS (and HTTP/2 over TLS) when a certificate is set.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP host:port.
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,max=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Cache.MaxBytes == 0 {
		c.Cache.MaxBytes = cache.DefaultMaxBytes
	}

	if c.Engine.TextTimeout == 0 {
		c.Engine.TextTimeout = executor.TextTimeout
	}
	if c.Engine.MediaTimeout == 0 {
		c.Engine.MediaTimeout = executor.MediaTimeout
	}
	def := resilience.DefaultRetryConfig()
	if c.Engine.Retry.MaxAttempts == 0 {
		c.Engine.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.Engine.Retry.InitialBackoff == 0 {
		c.Engine.Retry.InitialBackoff = def.InitialBackoff
	}
	if c.Engine.Retry.MaxBackoff == 0 {
		c.Engine.Retry.MaxBackoff = def.MaxBackoff
	}
	if c.Engine.Retry.BackoffFactor == 0 {
		c.Engine.Retry.BackoffFactor = def.BackoffFactor
	}
	if c.Engine.Retry.RetryIf == nil {
		c.Engine.Retry.RetryIf = def.RetryIf
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
		if c.Debug {
			c.Server.Mode = "debug"
		}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 10 << 20
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Telemetry.MetricsInterval == 0 {
		c.Telemetry.MetricsInterval = 15 * time.Second
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Server.TLS.Validate(); err != nil {
		return err
	}
	v := validation.New().
		Min("engine.retry.max_attempts", c.Engine.Retry.MaxAttempts, 1).
		Custom(!c.Telemetry.Enabled || c.Telemetry.Endpoint != "", "telemetry.endpoint", "is required when telemetry is enabled")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// TracerConfig derives the tracer settings.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}

// MeterConfig derives the meter settings.
func (c *Config) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		Interval:       c.Telemetry.MetricsInterval,
	}
}
