// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, messaging-platform credentials, quota
// policy, generation/hosting/payment collaborators, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// LineConfig holds messaging-platform (LINE) channel credentials and endpoints.
type LineConfig struct {
	ChannelAccessToken string // LINE_CHANNEL_ACCESS_TOKEN
	ChannelSecret      string // LINE_CHANNEL_SECRET
	APIBaseURL         string // override for tests; default https://api.line.me
	DataBaseURL        string // message content host; default https://api-data.line.me
}

// Configured reports whether both channel credentials are present.
func (c LineConfig) Configured() bool {
	return strings.TrimSpace(c.ChannelAccessToken) != "" && strings.TrimSpace(c.ChannelSecret) != ""
}

// GenerationConfig holds settings for the external image-generation service.
type GenerationConfig struct {
	APIKey    string        // GENERATION_API_KEY
	BaseURL   string        // GENERATION_BASE_URL (chat-completions style endpoint)
	Model     string        // GENERATION_MODEL
	MaxTokens int           // GENERATION_MAX_TOKENS
	Timeout   time.Duration // GENERATION_TIMEOUT; expiry is reported as a generation failure
}

// HostingConfig holds settings for the image-hosting collaborator.
type HostingConfig struct {
	ClientID string // IMGUR_CLIENT_ID
	BaseURL  string // IMGUR_BASE_URL
	Timeout  time.Duration
}

// PaymentConfig holds LINE Pay gateway settings. An empty ChannelID/Secret
// means the gateway is unconfigured and the payment flow degrades to an
// informational reply instead of creating reservations.
type PaymentConfig struct {
	ChannelID     string // LINE_PAY_CHANNEL_ID
	ChannelSecret string // LINE_PAY_CHANNEL_SECRET
	Sandbox       bool   // LINE_PAY_SANDBOX
	BaseURL       string // override for tests
	ConfirmURL    string // public callback URL passed to reserve()
	ProductName   string // PAY_PRODUCT_NAME
	Amount        int    // PAY_AMOUNT (price of one generation)
	Currency      string // PAY_CURRENCY
	Timeout       time.Duration
}

// Configured reports whether the gateway credentials are present.
func (c PaymentConfig) Configured() bool {
	return strings.TrimSpace(c.ChannelID) != "" && strings.TrimSpace(c.ChannelSecret) != ""
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App policy
	DBPath         string        // SQLite path for ledgers
	SessionTTL     time.Duration // awaiting-instruction window
	DailyFreeLimit int           // free generations per user per calendar day

	// Collaborators
	Line       LineConfig
	Generation GenerationConfig
	Hosting    HostingConfig
	Payment    PaymentConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Webhook redelivery dedupe
	RedeliveryTTL time.Duration // how long a processed delivery id is remembered

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App policy
		DBPath:         getenv("DB_PATH", "bot.db"),
		SessionTTL:     getdur("SESSION_TTL", 3*time.Minute),
		DailyFreeLimit: getint("DAILY_FREE_LIMIT", 1),

		Line: LineConfig{
			ChannelAccessToken: getenv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			ChannelSecret:      getenv("LINE_CHANNEL_SECRET", ""),
			APIBaseURL:         getenv("LINE_API_BASE_URL", "https://api.line.me"),
			DataBaseURL:        getenv("LINE_DATA_BASE_URL", "https://api-data.line.me"),
		},
		Generation: GenerationConfig{
			APIKey:    getenv("GENERATION_API_KEY", ""),
			BaseURL:   getenv("GENERATION_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Model:     getenv("GENERATION_MODEL", "google/gemini-2.5-flash-image-preview"),
			MaxTokens: getint("GENERATION_MAX_TOKENS", 1024),
			Timeout:   getdur("GENERATION_TIMEOUT", 60*time.Second),
		},
		Hosting: HostingConfig{
			ClientID: getenv("IMGUR_CLIENT_ID", ""),
			BaseURL:  getenv("IMGUR_BASE_URL", "https://api.imgur.com"),
			Timeout:  getdur("HOSTING_TIMEOUT", 30*time.Second),
		},
		Payment: PaymentConfig{
			ChannelID:     getenv("LINE_PAY_CHANNEL_ID", ""),
			ChannelSecret: getenv("LINE_PAY_CHANNEL_SECRET", ""),
			Sandbox:       getbool("LINE_PAY_SANDBOX", true),
			BaseURL:       getenv("LINE_PAY_BASE_URL", ""),
			ConfirmURL:    getenv("PAY_CONFIRM_URL", ""),
			ProductName:   getenv("PAY_PRODUCT_NAME", "AI 圖片生成"),
			Amount:        getint("PAY_AMOUNT", 10),
			Currency:      getenv("PAY_CURRENCY", "TWD"),
			Timeout:       getdur("PAYMENT_TIMEOUT", 30*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Redelivery dedupe
		RedeliveryTTL: getdur("REDELIVERY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-imagebot-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.SessionTTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.DailyFreeLimit < 0 {
		return cfg, errors.New("DAILY_FREE_LIMIT must be >= 0")
	}
	if cfg.Generation.Timeout <= 0 {
		return cfg, errors.New("GENERATION_TIMEOUT must be > 0")
	}
	if cfg.Payment.Amount <= 0 {
		return cfg, errors.New("PAY_AMOUNT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.RedeliveryTTL <= 0 {
		return cfg, errors.New("REDELIVERY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
