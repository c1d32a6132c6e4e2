package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Ingestion
	Source          string // "api" or "store"
	MarketstackKey  string
	MarketstackBase string

	// Universe
	Symbols    string // comma-separated, e.g. "AAPL,MSFT"
	Timeframes string // comma-separated, e.g. "1hour,15min"; empty = all

	// Pipeline tuning
	PollSeconds int
	CacheBars   int
	WarmupBars  int

	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	ListenAddr    string
	MetricsAddr   string

	// Outbound
	CORSOrigins string
	WebhookURL  string
}

// Load reads configuration from environment variables with sensible defaults.
// MARKETSTACK_API_KEY is only required for the api source.
func Load() *Config {
	cfg := &Config{
		Source:          getEnv("SOURCE", "api"),
		MarketstackKey:  getEnv("MARKETSTACK_API_KEY", ""),
		MarketstackBase: getEnv("MARKETSTACK_BASE_URL", "https://api.marketstack.com/v1"),

		Symbols:    getEnv("SYMBOLS", "AAPL"),
		Timeframes: getEnv("TIMEFRAMES", ""),

		PollSeconds: getEnvInt("POLL_SECONDS", 60),
		CacheBars:   getEnvInt("CACHE_BARS", 1200),
		WarmupBars:  getEnvInt("WARMUP_BARS", 60),

		SQLitePath:    getEnv("SQLITE_PATH", "data/market.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		WebhookURL:  getEnv("WEBHOOK_URL", ""),
	}
	if cfg.Source == "api" && cfg.MarketstackKey == "" {
		log.Fatalf("[config] required env var MARKETSTACK_API_KEY not set")
	}
	return cfg
}

// ParseSymbols returns the deduplicated upper-cased symbol list.
func (c *Config) ParseSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(c.Symbols, ",") {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ParseTimeframes returns the configured timeframes, or the full supported
// set when unset. Unknown labels are skipped with a warning.
func (c *Config) ParseTimeframes() []model.Timeframe {
	if strings.TrimSpace(c.Timeframes) == "" {
		return append([]model.Timeframe(nil), model.Timeframes...)
	}
	var out []model.Timeframe
	for _, p := range strings.Split(c.Timeframes, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tf, err := model.ParseTimeframe(p)
		if err != nil {
			log.Printf("[config] skipping invalid timeframe: %q", p)
			continue
		}
		out = append(out, tf)
	}
	return out
}

// ParseCORSOrigins returns the allowed origin list; "*" or empty means any.
func (c *Config) ParseCORSOrigins() []string {
	raw := strings.TrimSpace(c.CORSOrigins)
	if raw == "" || raw == "*" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PollInterval returns the orchestrator tick interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
