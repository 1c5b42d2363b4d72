package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host environment cannot leak
// into a test. t.Setenv restores the originals on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY",
		"DB_PATH", "SESSION_TTL", "DAILY_FREE_LIMIT",
		"LINE_CHANNEL_ACCESS_TOKEN", "LINE_CHANNEL_SECRET", "LINE_API_BASE_URL", "LINE_DATA_BASE_URL",
		"GENERATION_API_KEY", "GENERATION_BASE_URL", "GENERATION_MODEL", "GENERATION_MAX_TOKENS", "GENERATION_TIMEOUT",
		"IMGUR_CLIENT_ID", "IMGUR_BASE_URL", "HOSTING_TIMEOUT",
		"LINE_PAY_CHANNEL_ID", "LINE_PAY_CHANNEL_SECRET", "LINE_PAY_SANDBOX", "LINE_PAY_BASE_URL",
		"PAY_CONFIRM_URL", "PAY_PRODUCT_NAME", "PAY_AMOUNT", "PAY_CURRENCY", "PAYMENT_TIMEOUT",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"REDELIVERY_TTL",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("logging defaults = %q/%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.DBPath != "bot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SessionTTL != 3*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.DailyFreeLimit != 1 {
		t.Errorf("DailyFreeLimit = %d", cfg.DailyFreeLimit)
	}
	if cfg.Line.APIBaseURL != "https://api.line.me" || cfg.Line.DataBaseURL != "https://api-data.line.me" {
		t.Errorf("LINE endpoints = %q / %q", cfg.Line.APIBaseURL, cfg.Line.DataBaseURL)
	}
	if cfg.Generation.Timeout != 60*time.Second || cfg.Generation.MaxTokens != 1024 {
		t.Errorf("generation defaults = %v / %d", cfg.Generation.Timeout, cfg.Generation.MaxTokens)
	}
	if !cfg.Payment.Sandbox || cfg.Payment.Amount != 10 || cfg.Payment.Currency != "TWD" {
		t.Errorf("payment defaults = %+v", cfg.Payment)
	}
	if cfg.RateRPS != 20.0 || cfg.RateBurst != 40 {
		t.Errorf("rate defaults = %v / %d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RedeliveryTTL != 24*time.Hour {
		t.Errorf("RedeliveryTTL = %v", cfg.RedeliveryTTL)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.SampleRatio != 1.0 {
		t.Errorf("OTEL defaults = %+v", cfg.OTEL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "DEBUG")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("DAILY_FREE_LIMIT", "3")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Errorf("GinMode = %q; want lowercased", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warning normalized to warn", cfg.LogLevel)
	}
	if cfg.SessionTTL != 90*time.Second {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.DailyFreeLimit != 3 {
		t.Errorf("DailyFreeLimit = %d", cfg.DailyFreeLimit)
	}
	if !cfg.LogPretty {
		t.Error("LOG_PRETTY=yes not parsed")
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q", i, cfg.CORS.AllowedOrigins[i])
		}
	}
}

func TestLoad_UnknownGinModeFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		key, val string
		fragment string
	}{
		"bad log level":        {"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		"zero session ttl":     {"SESSION_TTL", "0s", "SESSION_TTL"},
		"negative free limit":  {"DAILY_FREE_LIMIT", "-1", "DAILY_FREE_LIMIT"},
		"zero gen timeout":     {"GENERATION_TIMEOUT", "0s", "GENERATION_TIMEOUT"},
		"zero pay amount":      {"PAY_AMOUNT", "0", "PAY_AMOUNT"},
		"negative rate":        {"RATE_RPS", "-1", "RATE_RPS"},
		"zero burst":           {"RATE_BURST", "0", "RATE_BURST"},
		"zero redelivery ttl":  {"REDELIVERY_TTL", "0s", "REDELIVERY_TTL"},
		"sampler out of range": {"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
		"negative timeout":     {"READ_TIMEOUT", "-1s", "timeouts"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted %s=%s", tc.key, tc.val)
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Errorf("error %q does not mention %q", err, tc.fragment)
			}
		})
	}
}

func TestLineConfigConfigured(t *testing.T) {
	if (LineConfig{}).Configured() {
		t.Error("empty credentials reported configured")
	}
	if (LineConfig{ChannelAccessToken: "tok"}).Configured() {
		t.Error("secretless channel reported configured")
	}
	if !(LineConfig{ChannelAccessToken: "tok", ChannelSecret: "sec"}).Configured() {
		t.Error("full credentials reported unconfigured")
	}
}

func TestPaymentConfigConfigured(t *testing.T) {
	if (PaymentConfig{ChannelID: " "}).Configured() {
		t.Error("blank credentials reported configured")
	}
	if !(PaymentConfig{ChannelID: "123", ChannelSecret: "abc"}).Configured() {
		t.Error("full credentials reported unconfigured")
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv("T_STR", "")
	if got := getenv("T_STR", "def"); got != "def" {
		t.Errorf("getenv on empty = %q", got)
	}
	t.Setenv("T_INT", "not-a-number")
	if got := getint("T_INT", 7); got != 7 {
		t.Errorf("getint on garbage = %d", got)
	}
	t.Setenv("T_BOOL", "off")
	if getbool("T_BOOL", true) {
		t.Error("getbool(off) = true")
	}
	t.Setenv("T_DUR", "250ms")
	if got := getdur("T_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("getdur = %v", got)
	}
	t.Setenv("T_FLOAT", "0.25")
	if got := getfloat("T_FLOAT", 1); got != 0.25 {
		t.Errorf("getfloat = %v", got)
	}
	if out := splitCSV(""); out != nil {
		t.Errorf("splitCSV(\"\") = %v", out)
	}
}
