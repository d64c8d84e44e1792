// Package config loads gateway configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidatorStrategy selects how the gate validates session credentials.
type ValidatorStrategy string

const (
	// StrategyLocal inspects token shape and expiry claim only. Fast, but
	// cannot detect server-side revocation.
	StrategyLocal ValidatorStrategy = "local"
	// StrategyRemote asks the authorization service on every navigation.
	// Authoritative, costs one bounded round trip; unreachable authority
	// denies access.
	StrategyRemote ValidatorStrategy = "remote"
)

// Config holds all gateway settings.
type Config struct {
	Service struct {
		Name    string
		Version string
		Env     string
		Port    string
	}
	Logging struct {
		Level string
	}
	Upstream struct {
		// AuthorityURL is the base URL of the authorization service
		// (login, register, logout, me, verify).
		AuthorityURL string
		// AppURL is the origin serving application pages; allowed
		// navigations are proxied there.
		AppURL string
	}
	Gate struct {
		Strategy      ValidatorStrategy
		RemoteTimeout time.Duration
		CookieName    string
		// CookieDomain and CookieSecure must mirror the attributes the
		// authorization service sets on the credential cookie, or the
		// gate's deletion cookie will not match it in the browser.
		CookieDomain      string
		CookieSecure      bool
		LoginPath         string
		HomePath          string
		ProtectedPrefixes []string
		AuthOnlyPaths     []string
	}
	RateLimit struct {
		RPS   float64
		Burst int
	}
	Tracing struct {
		Enabled    bool
		Endpoint   string
		SampleRate float64
	}
	Profiling struct {
		Enabled  bool
		Endpoint string
	}
	Shutdown struct {
		Timeout             time.Duration
		ReadinessDrainDelay time.Duration
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present (development convenience; real
// deployments set the environment directly).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Service.Name = getEnv("SERVICE_NAME", "interviewai-authgate")
	cfg.Service.Version = getEnv("SERVICE_VERSION", "dev")
	cfg.Service.Env = getEnv("ENV", "development")
	cfg.Service.Port = getEnv("PORT", "8080")

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.Upstream.AuthorityURL = getEnv("AUTHORITY_URL", "http://localhost:8000")
	cfg.Upstream.AppURL = getEnv("APP_URL", "http://localhost:3000")

	cfg.Gate.Strategy = ValidatorStrategy(getEnv("AUTH_VALIDATOR", string(StrategyLocal)))
	cfg.Gate.RemoteTimeout = getDuration("AUTH_REMOTE_TIMEOUT", time.Second)
	cfg.Gate.CookieName = getEnv("AUTH_COOKIE_NAME", "auth_token")
	cfg.Gate.CookieDomain = getEnv("AUTH_COOKIE_DOMAIN", "")
	cfg.Gate.CookieSecure = getBool("AUTH_COOKIE_SECURE", false)
	cfg.Gate.LoginPath = getEnv("AUTH_LOGIN_PATH", "/login")
	cfg.Gate.HomePath = getEnv("AUTH_HOME_PATH", "/dashboard")
	cfg.Gate.ProtectedPrefixes = getList("AUTH_PROTECTED_PREFIXES",
		"/dashboard,/interview,/profile,/history,/statistics,/scorecard")
	cfg.Gate.AuthOnlyPaths = getList("AUTH_ONLY_PATHS", "/login,/register")

	cfg.RateLimit.RPS = getFloat("RATE_LIMIT_RPS", 5)
	cfg.RateLimit.Burst = getInt("RATE_LIMIT_BURST", 10)

	cfg.Tracing.Enabled = getBool("TRACING_ENABLED", false)
	cfg.Tracing.Endpoint = getEnv("TRACING_ENDPOINT", "localhost:4318")
	cfg.Tracing.SampleRate = getFloat("TRACING_SAMPLE_RATE", 0.1)

	cfg.Profiling.Enabled = getBool("PROFILING_ENABLED", false)
	cfg.Profiling.Endpoint = getEnv("PROFILING_ENDPOINT", "http://localhost:4040")

	cfg.Shutdown.Timeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.Shutdown.ReadinessDrainDelay = getDuration("READINESS_DRAIN_DELAY", 0)

	return cfg
}

// Validate checks settings that would otherwise fail at an awkward moment
// deep inside request handling.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Service.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Service.Port, err)
	}
	if _, err := url.ParseRequestURI(c.Upstream.AuthorityURL); err != nil {
		return fmt.Errorf("invalid AUTHORITY_URL %q: %w", c.Upstream.AuthorityURL, err)
	}
	if _, err := url.ParseRequestURI(c.Upstream.AppURL); err != nil {
		return fmt.Errorf("invalid APP_URL %q: %w", c.Upstream.AppURL, err)
	}
	switch c.Gate.Strategy {
	case StrategyLocal, StrategyRemote:
	default:
		return fmt.Errorf("invalid AUTH_VALIDATOR %q: must be %q or %q",
			c.Gate.Strategy, StrategyLocal, StrategyRemote)
	}
	if c.Gate.RemoteTimeout <= 0 {
		return fmt.Errorf("AUTH_REMOTE_TIMEOUT must be positive, got %s", c.Gate.RemoteTimeout)
	}
	if c.Gate.CookieName == "" {
		return fmt.Errorf("AUTH_COOKIE_NAME must not be empty")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be in [0,1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// GetShutdownTimeoutDuration returns the HTTP server shutdown deadline.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return c.Shutdown.Timeout
}

// GetReadinessDrainDelayDuration returns how long to keep serving after the
// readiness probe starts failing, letting load balancers drain traffic.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return c.Shutdown.ReadinessDrainDelay
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
