package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one route. Pattern segments equal to "*" match any single path
// segment, so "/sessions/*/upload" covers every session.
type Rule struct {
	Method  string
	Pattern string
	Limit   int           // requests per Window; 0 means unlimited
	Window  time.Duration
	Burst   int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Rules           []Rule
}

// DefaultConfig is used when no configuration is given.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		Rules:           DefaultRules(),
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables over DefaultConfig.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	return cfg
}

// DefaultRules throttles the routes that do real work: document parsing,
// headless printing and the four-layout gallery. Everything else falls under
// the default limit, and health checks are never limited.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Pattern: "/health", Limit: 0},

		{Method: http.MethodPost, Pattern: "/sessions/*/upload", Limit: 30, Window: time.Hour, Burst: 3},
		{Method: http.MethodPost, Pattern: "/api/parse", Limit: 30, Window: time.Hour, Burst: 3},
		{Method: http.MethodGet, Pattern: "/sessions/*/export.pdf", Limit: 30, Window: time.Hour, Burst: 3},

		{Method: http.MethodPost, Pattern: "/render/gallery", Limit: 120, Window: time.Minute, Burst: 10},
		{Method: http.MethodPost, Pattern: "/sessions", Limit: 60, Window: time.Minute, Burst: 10},
		{Method: http.MethodPost, Pattern: "/api/save", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// parseIPList turns "a, b" into a set.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
