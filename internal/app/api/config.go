package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

const (
	defaultMongoDatabase   = "School__Activities"
	defaultImagesDir       = "./images"
	defaultGatewayTimeout  = 10 * time.Second
	defaultConnectAttempts = 10
	defaultNotifyFrom      = "orders@school-activities.local"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                   string
	MongoURI               string
	MongoURISecret         string
	MongoDatabase          string
	PostgresDSN            string
	RedisAddr              string
	TemporalAddress        string
	TemporalNamespace      string
	TemporalDisabled       bool
	ImagesDir              string
	ImagesBucket           string
	GlobalSearchCollection string
	SearchRawPatterns      bool
	CollectionAllowlist    []string
	GatewayTimeout         time.Duration
	GatewayConnectAttempts int
	SendGridAPIKey         string
	OrderNotifyFrom        string
	OrderNotifyTo          string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                   envDefault("PORT", "8080"),
		MongoURI:               strings.TrimSpace(os.Getenv("MONGODB_URI")),
		MongoURISecret:         strings.TrimSpace(os.Getenv("MONGODB_URI_SECRET")),
		MongoDatabase:          envDefault("MONGODB_DATABASE", defaultMongoDatabase),
		PostgresDSN:            strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:              strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		TemporalAddress:        envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:      envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:       isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		ImagesDir:              envDefault("IMAGES_DIR", defaultImagesDir),
		ImagesBucket:           strings.TrimSpace(os.Getenv("IMAGES_BUCKET")),
		GlobalSearchCollection: strings.TrimSpace(os.Getenv("GLOBAL_SEARCH_COLLECTION")),
		CollectionAllowlist:    splitList(os.Getenv("COLLECTION_ALLOWLIST")),
		GatewayTimeout:         defaultGatewayTimeout,
		GatewayConnectAttempts: defaultConnectAttempts,
		SendGridAPIKey:         strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		OrderNotifyFrom:        envDefault("ORDER_NOTIFY_FROM", defaultNotifyFrom),
		OrderNotifyTo:          strings.TrimSpace(os.Getenv("ORDER_NOTIFY_TO")),
	}
	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a TCP port number, got %q", cfg.Port)
	}
	if cfg.MongoURI != "" && cfg.MongoURISecret != "" {
		return Config{}, fmt.Errorf("set only one of MONGODB_URI and MONGODB_URI_SECRET")
	}
	if raw := strings.TrimSpace(os.Getenv("SEARCH_RAW_PATTERNS")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("SEARCH_RAW_PATTERNS must be a boolean")
		}
		cfg.SearchRawPatterns = enabled
	}
	if raw := strings.TrimSpace(os.Getenv("GATEWAY_TIMEOUT")); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GATEWAY_TIMEOUT must be a positive duration such as 10s")
		}
		cfg.GatewayTimeout = timeout
	}
	if raw := strings.TrimSpace(os.Getenv("GATEWAY_CONNECT_ATTEMPTS")); raw != "" {
		attempts, err := strconv.Atoi(raw)
		if err != nil || attempts < 0 {
			return Config{}, fmt.Errorf("GATEWAY_CONNECT_ATTEMPTS must be a non-negative integer")
		}
		cfg.GatewayConnectAttempts = attempts
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// NotificationsEnabled reports whether placed orders are mailed to the operator.
func (c Config) NotificationsEnabled() bool {
	return c.SendGridAPIKey != "" && c.OrderNotifyTo != ""
}

// parseTimeout accepts Go durations and bare seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("timeout must be positive")
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
