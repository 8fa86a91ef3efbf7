package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	PublicURL   string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	StoreName     string
	StoreCurrency string
	StoreTimezone string

	Xendit    XenditConfig
	Notify    NotifyConfig
	Email     EmailConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig

	SeedDemoCatalog bool
}

// TelemetryConfig carries the LOG_* and OTEL_* settings.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtelEndpoint  string
	OtelProtocol  string
	SamplingRatio float64
}

type XenditConfig struct {
	BaseURL       string
	SecretKey     string
	CallbackToken string
	Timeout       time.Duration
}

type NotifyConfig struct {
	Channels     []string
	FonnteURL    string
	FonnteToken  string
	Timeout      time.Duration
	AdminPhone   string
	CountryCode  string
	MessageTitle string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

type RateLimitConfig struct {
	Enabled           bool
	CheckoutRate      float64
	CheckoutBurst     int
	ReconcileLockTTL  time.Duration
	ReconcileLockWait time.Duration
}

// AdminConfig maps static API keys to roles, e.g. "key1:owner,key2:support".
type AdminConfig struct {
	APIKeys map[string]string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "storefront"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		PublicURL:         strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:3000"), "/"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "storefront"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),
		StoreName:         getenv("STORE_NAME", "Storefront"),
		StoreCurrency:     strings.ToUpper(getenv("STORE_CURRENCY", "IDR")),
		StoreTimezone:     getenv("STORE_TIMEZONE", "Asia/Jakarta"),
		Telemetry:         loadTelemetry(),
		Xendit: XenditConfig{
			BaseURL:       strings.TrimRight(getenv("XENDIT_BASE_URL", "https://api.xendit.co"), "/"),
			SecretKey:     strings.TrimSpace(getenv("XENDIT_SECRET_KEY", "")),
			CallbackToken: strings.TrimSpace(getenv("XENDIT_CALLBACK_TOKEN", "")),
			Timeout:       time.Duration(getenvInt64("XENDIT_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Notify: NotifyConfig{
			Channels:     parseList(getenv("NOTIFY_CHANNELS", "whatsapp")),
			FonnteURL:    getenv("FONNTE_API_URL", "https://api.fonnte.com/send"),
			FonnteToken:  strings.TrimSpace(getenv("FONNTE_TOKEN", "")),
			Timeout:      time.Duration(getenvInt64("NOTIFY_TIMEOUT_SECONDS", 10)) * time.Second,
			AdminPhone:   strings.TrimSpace(getenv("NOTIFY_ADMIN_PHONE", "")),
			CountryCode:  getenv("NOTIFY_COUNTRY_CODE", "62"),
			MessageTitle: getenv("NOTIFY_MESSAGE_TITLE", "Pembayaran diterima"),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     int(getenvInt64("SMTP_PORT", 1025)),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@storefront.local"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getenvBool("RATE_LIMIT_ENABLED", true),
			CheckoutRate:      getenvFloat("RATE_LIMIT_CHECKOUT_RATE", 0.5),
			CheckoutBurst:     int(getenvInt64("RATE_LIMIT_CHECKOUT_BURST", 5)),
			ReconcileLockTTL:  time.Duration(getenvInt64("RECONCILE_LOCK_TTL_SECONDS", 30)) * time.Second,
			ReconcileLockWait: time.Duration(getenvInt64("RECONCILE_LOCK_WAIT_MS", 2000)) * time.Millisecond,
		},
		Admin: AdminConfig{
			APIKeys: parseAPIKeys(getenv("ADMIN_API_KEYS", "")),
		},
		SeedDemoCatalog: getenvBool("SEED_DEMO_CATALOG", false),
	}

	if _, set := os.LookupEnv("OTEL_ENABLED"); !set {
		// Exporting is opt-in outside production so local runs do not dial a collector.
		cfg.Telemetry.OtelEnabled = cfg.IsProduction()
	}
	if cfg.Xendit.CallbackToken == "" {
		log.Println("XENDIT_CALLBACK_TOKEN is empty; payment callbacks are accepted without authentication")
	}

	return cfg
}

func loadTelemetry() TelemetryConfig {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	ratio := getenvFloat("OTEL_SAMPLING_RATIO", 0.1)
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}
	return TelemetryConfig{
		LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OtelEnabled:   getenvBool("OTEL_ENABLED", false),
		OtelEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OtelProtocol:  strings.ToLower(strings.TrimSpace(protocol)),
		SamplingRatio: ratio,
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseAPIKeys(raw string) map[string]string {
	out := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, role, ok := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		role = strings.ToLower(strings.TrimSpace(role))
		if !ok || key == "" || role == "" {
			log.Printf("ignoring malformed ADMIN_API_KEYS entry")
			continue
		}
		out[key] = role
	}
	return out
}
