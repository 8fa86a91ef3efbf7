package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_CURRENCY", "")
	t.Setenv("XENDIT_TIMEOUT_SECONDS", "")
	t.Setenv("NOTIFY_CHANNELS", "")

	cfg := Load()
	if cfg.StoreCurrency != "IDR" {
		t.Fatalf("expected IDR currency, got %q", cfg.StoreCurrency)
	}
	if cfg.Xendit.Timeout != 15*time.Second {
		t.Fatalf("expected 15s provider timeout, got %s", cfg.Xendit.Timeout)
	}
	if len(cfg.Notify.Channels) != 1 || cfg.Notify.Channels[0] != "whatsapp" {
		t.Fatalf("expected whatsapp channel, got %v", cfg.Notify.Channels)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_CURRENCY", "usd")
	t.Setenv("NOTIFY_CHANNELS", "WhatsApp, email,,")
	t.Setenv("ADMIN_API_KEYS", "k1:Owner, k2:support, broken")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := Load()
	if cfg.StoreCurrency != "USD" {
		t.Fatalf("expected USD, got %q", cfg.StoreCurrency)
	}
	if len(cfg.Notify.Channels) != 2 || cfg.Notify.Channels[1] != "email" {
		t.Fatalf("unexpected channels %v", cfg.Notify.Channels)
	}
	if len(cfg.Admin.APIKeys) != 2 || cfg.Admin.APIKeys["k1"] != "owner" {
		t.Fatalf("unexpected api keys %v", cfg.Admin.APIKeys)
	}
	if cfg.RateLimit.Enabled {
		t.Fatalf("expected rate limit disabled")
	}
}

func TestCheckoutConfigValidation(t *testing.T) {
	cfg := DefaultCheckoutConfig("https://shop.example/")
	if cfg.SuccessRedirectURL != "https://shop.example/checkout/success" {
		t.Fatalf("unexpected success url %q", cfg.SuccessRedirectURL)
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}

	cfg.FailureRedirectURL = " "
	if err := validateCheckoutConfig(cfg); err == nil {
		t.Fatalf("expected empty failure url to be rejected")
	}

	holder := NewStaticCheckoutConfigHolder(DefaultCheckoutConfig("http://localhost"))
	if holder.Get().InvoiceDuration != 24*time.Hour {
		t.Fatalf("expected 24h invoice duration")
	}
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "3")

	cfg := Load()
	if cfg.Telemetry.LogLevel != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Telemetry.LogLevel)
	}
	if cfg.Telemetry.OtelProtocol != "http" {
		t.Fatalf("expected traces protocol override, got %q", cfg.Telemetry.OtelProtocol)
	}
	if cfg.Telemetry.SamplingRatio != 0.1 {
		t.Fatalf("expected out-of-range ratio to fall back, got %v", cfg.Telemetry.SamplingRatio)
	}
	if !cfg.Telemetry.OtelEnabled {
		t.Fatalf("expected exporting to default on in production")
	}

	t.Setenv("OTEL_ENABLED", "false")
	if Load().Telemetry.OtelEnabled {
		t.Fatalf("expected OTEL_ENABLED to win over the environment default")
	}
}
