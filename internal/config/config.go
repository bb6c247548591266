// Package config loads finassist settings from an optional YAML file and the
// environment. Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loft/finassist/core"
)

// FileEnv names the variable pointing at the YAML overlay.
const FileEnv = "FINASSIST_CONFIG"

// Model providers.
const (
	ProviderRules     = "rules"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Reply modes.
const (
	ReplyModeTwiML = "twiml"
	ReplyModeAPI   = "api"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all configuration for the assistant.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Sessions  SessionConfig   `yaml:"sessions"`
	Assets    AssetsConfig    `yaml:"assets"`
	KeepAlive KeepAliveConfig `yaml:"keepalive"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type ModelConfig struct {
	Provider        string  `yaml:"provider"`
	Name            string  `yaml:"name"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	Temperature     float64 `yaml:"temperature"`
}

type DispatchConfig struct {
	MaxHops     int           `yaml:"max_hops"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Store         string        `yaml:"store"`
	SQLitePath    string        `yaml:"sqlite_path"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

type KeepAliveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	URL             string `yaml:"url"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

type TwilioConfig struct {
	AccountSID        string `yaml:"account_sid"`
	AuthToken         string `yaml:"auth_token"`
	WhatsAppNumber    string `yaml:"whatsapp_number"`
	ValidateSignature bool   `yaml:"validate_signature"`
	PublicBaseURL     string `yaml:"public_base_url"`
	ReplyMode         string `yaml:"reply_mode"`
}

// CanSend reports whether outbound messages can be sent.
func (t TwilioConfig) CanSend() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppNumber != ""
}

type RateLimitConfig struct {
	InboundPerMinute  int     `yaml:"inbound_per_minute"`
	InboundBurst      int     `yaml:"inbound_burst"`
	OutboundPerSecond float64 `yaml:"outbound_per_second"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
	Output  string `yaml:"output"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000},
		Model: ModelConfig{
			Provider:    ProviderRules,
			Temperature: 0.2,
		},
		Dispatch: DispatchConfig{
			MaxHops:     core.DefaultMaxHops,
			TurnTimeout: 60 * time.Second,
		},
		Breaker: BreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second},
		Sessions: SessionConfig{
			Store:         StoreMemory,
			SQLitePath:    "finassist.db",
			TTL:           24 * time.Hour,
			SweepInterval: time.Minute,
		},
		Assets:    AssetsConfig{Dir: "assets"},
		KeepAlive: KeepAliveConfig{Enabled: true, IntervalMinutes: 15},
		Twilio:    TwilioConfig{ReplyMode: ReplyModeTwiML},
		RateLimit: RateLimitConfig{
			InboundPerMinute:  30,
			InboundBurst:      5,
			OutboundPerSecond: 1,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Backend: "slog", Output: "stdout"},
		Telemetry: TelemetryConfig{
			Exporter:     "otlp",
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "loft-whatsapp-chatbot",
		},
	}
}

// Load reads the file named by FINASSIST_CONFIG, if any, applies environment
// overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, core.ConfigErrorf("config.Load", "read %s: %v", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, core.ConfigErrorf("config.Load", "parse %s: %v", path, err)
			}
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps environment variables onto cfg. A value that does
// not parse is a configuration error rather than a silent fallback.
func ApplyEnvOverrides(cfg *Config) error {
	e := &envReader{}

	cfg.Server.Host = e.str("HOST", cfg.Server.Host)
	cfg.Server.Port = e.int("PORT", cfg.Server.Port)

	cfg.Model.Provider = strings.ToLower(e.str("MODEL_PROVIDER", cfg.Model.Provider))
	cfg.Model.Name = e.str("MODEL_NAME", cfg.Model.Name)
	cfg.Model.OpenAIAPIKey = e.str("OPENAI_API_KEY", cfg.Model.OpenAIAPIKey)
	cfg.Model.AnthropicAPIKey = e.str("ANTHROPIC_API_KEY", cfg.Model.AnthropicAPIKey)
	cfg.Model.Temperature = e.float("MODEL_TEMPERATURE", cfg.Model.Temperature)

	cfg.Dispatch.MaxHops = e.int("MAX_HOPS", cfg.Dispatch.MaxHops)
	cfg.Dispatch.TurnTimeout = e.duration("TURN_TIMEOUT", cfg.Dispatch.TurnTimeout)

	cfg.Breaker.MaxFailures = uint32(e.int("BREAKER_MAX_FAILURES", int(cfg.Breaker.MaxFailures)))
	cfg.Breaker.Timeout = e.duration("BREAKER_TIMEOUT", cfg.Breaker.Timeout)

	cfg.Sessions.Store = strings.ToLower(e.str("SESSION_STORE", cfg.Sessions.Store))
	cfg.Sessions.SQLitePath = e.str("SQLITE_PATH", cfg.Sessions.SQLitePath)
	cfg.Sessions.TTL = e.duration("SESSION_TTL", cfg.Sessions.TTL)
	cfg.Sessions.SweepInterval = e.duration("SESSION_SWEEP_INTERVAL", cfg.Sessions.SweepInterval)

	cfg.Assets.Dir = e.str("ASSETS_DIR", cfg.Assets.Dir)

	cfg.KeepAlive.URL = e.str("APP_URL", cfg.KeepAlive.URL)
	cfg.KeepAlive.IntervalMinutes = e.int("PING_INTERVAL_MINUTES", cfg.KeepAlive.IntervalMinutes)
	cfg.KeepAlive.Enabled = e.bool("PING_ENABLED", cfg.KeepAlive.Enabled)

	cfg.Twilio.AccountSID = e.str("TWILIO_ACCOUNT_SID", cfg.Twilio.AccountSID)
	cfg.Twilio.AuthToken = e.str("TWILIO_AUTH_TOKEN", cfg.Twilio.AuthToken)
	cfg.Twilio.WhatsAppNumber = e.str("TWILIO_WHATSAPP_NUMBER", cfg.Twilio.WhatsAppNumber)
	cfg.Twilio.ValidateSignature = e.bool("TWILIO_VALIDATE_SIGNATURE", cfg.Twilio.ValidateSignature)
	cfg.Twilio.PublicBaseURL = e.str("PUBLIC_BASE_URL", cfg.Twilio.PublicBaseURL)
	cfg.Twilio.ReplyMode = strings.ToLower(e.str("REPLY_MODE", cfg.Twilio.ReplyMode))

	cfg.RateLimit.InboundPerMinute = e.int("INBOUND_RATE_PER_MIN", cfg.RateLimit.InboundPerMinute)
	cfg.RateLimit.InboundBurst = e.int("INBOUND_BURST", cfg.RateLimit.InboundBurst)
	cfg.RateLimit.OutboundPerSecond = e.float("OUTBOUND_RATE_PER_SEC", cfg.RateLimit.OutboundPerSecond)

	cfg.Logging.Level = e.str("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = e.str("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Backend = e.str("LOG_BACKEND", cfg.Logging.Backend)
	cfg.Logging.Output = e.str("LOG_OUTPUT", cfg.Logging.Output)

	cfg.Telemetry.Enabled = e.bool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = strings.ToLower(e.str("OTEL_EXPORTER", cfg.Telemetry.Exporter))
	cfg.Telemetry.OTLPEndpoint = e.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.ServiceName = e.str("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)

	if len(e.errs) > 0 {
		return core.ConfigErrorf("config.Load", "invalid environment: %s", strings.Join(e.errs, "; "))
	}
	return nil
}

// Validate checks cfg and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Model.Provider {
	case ProviderRules:
	case ProviderOpenAI:
		if c.Model.OpenAIAPIKey == "" {
			add("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Model.AnthropicAPIKey == "" {
			add("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	default:
		add("MODEL_PROVIDER must be rules, openai or anthropic, got %q", c.Model.Provider)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		add("MODEL_TEMPERATURE must be between 0 and 2, got %g", c.Model.Temperature)
	}

	if c.Dispatch.MaxHops < 1 {
		add("MAX_HOPS must be at least 1, got %d", c.Dispatch.MaxHops)
	}
	if c.Dispatch.TurnTimeout <= 0 {
		add("TURN_TIMEOUT must be positive")
	}
	if c.Breaker.MaxFailures < 1 {
		add("BREAKER_MAX_FAILURES must be at least 1")
	}
	if c.Breaker.Timeout <= 0 {
		add("BREAKER_TIMEOUT must be positive")
	}

	switch c.Sessions.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Sessions.SQLitePath == "" {
			add("SQLITE_PATH is required for the sqlite session store")
		}
	default:
		add("SESSION_STORE must be memory or sqlite, got %q", c.Sessions.Store)
	}
	if c.Sessions.TTL <= 0 {
		add("SESSION_TTL must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		add("SESSION_SWEEP_INTERVAL must be positive")
	}

	if c.KeepAlive.IntervalMinutes < 1 {
		add("PING_INTERVAL_MINUTES must be at least 1, got %d", c.KeepAlive.IntervalMinutes)
	}

	switch c.Twilio.ReplyMode {
	case ReplyModeTwiML:
	case ReplyModeAPI:
		if !c.Twilio.CanSend() {
			add("REPLY_MODE=api needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER")
		}
	default:
		add("REPLY_MODE must be twiml or api, got %q", c.Twilio.ReplyMode)
	}
	if c.Twilio.ValidateSignature && c.Twilio.AuthToken == "" {
		add("TWILIO_VALIDATE_SIGNATURE needs TWILIO_AUTH_TOKEN")
	}

	if c.RateLimit.InboundPerMinute < 1 {
		add("INBOUND_RATE_PER_MIN must be at least 1")
	}
	if c.RateLimit.InboundBurst < 1 {
		add("INBOUND_BURST must be at least 1")
	}
	if c.RateLimit.OutboundPerSecond <= 0 {
		add("OUTBOUND_RATE_PER_SEC must be positive")
	}

	switch c.Telemetry.Exporter {
	case "otlp", "stdout", "noop":
	default:
		add("OTEL_EXPORTER must be otlp, stdout or noop, got %q", c.Telemetry.Exporter)
	}

	if len(problems) > 0 {
		return core.ConfigErrorf("config.Validate", "%s", strings.Join(problems, "; "))
	}
	return nil
}

type envReader struct {
	errs []string
}

func (e *envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *envReader) int(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s=%q is not an integer", key, v))
		return fallback
	}
	return i
}

func (e *envReader) float(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s=%q is not a number", key, v))
		return fallback
	}
	return f
}

func (e *envReader) bool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s=%q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s=%q is not a duration", key, v))
		return fallback
	}
	return d
}
