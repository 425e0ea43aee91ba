// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// CoordinatorConfig holds the connection settings for the query coordinator.
type CoordinatorConfig struct {
	URL     string        // base URL, e.g. http://coordinator:8080
	User    string        // identity header value (default "querybench")
	Catalog string        // default catalog header (optional)
	Schema  string        // default schema header (optional)
	Source  string        // client source tag (default "querybench")

	PollInterval time.Duration // fixed delay between status polls (default 1s)
	QueryTimeout time.Duration // total wait budget per query (default 10m)

	// ExtraHeaders are additional headers sent on every request, parsed from
	// COORDINATOR_HEADERS ("Name: value;Name2: value2").
	ExtraHeaders map[string]string
}

// Validate checks that the coordinator configuration is usable.
func (c *CoordinatorConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("COORDINATOR_URL must be set")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("COORDINATOR_URL must be an http(s) URL, got %q", c.URL)
	}
	return nil
}

// ScheduleEntry pairs a suite name with a cron expression, parsed from
// SCHEDULES ("suite@cron;suite@cron").
type ScheduleEntry struct {
	Suite string
	Cron  string
}

// Config holds the configuration for the benchmark server.
type Config struct {
	Coordinator CoordinatorConfig

	MetaDBPath string // path to SQLite results file (default "querybench.sqlite")
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Suite loading
	SuiteDir   string // directory of suite manifests merged over built-ins (optional)
	StripLimit bool   // strip trailing LIMIT clauses from suite queries

	// Execution
	Concurrency int     // in-flight queries per run (default 4)
	SubmitRPS   float64 // statement submission rate per run (0 = unlimited)

	// Scheduling
	Schedules []ScheduleEntry

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Auth
	JWTSecret string   // HS256 shared secret for Bearer tokens
	APIKeys   []string // static API keys accepted on X-API-Key

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath: os.Getenv("META_DB_PATH"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		SuiteDir:   os.Getenv("SUITE_DIR"),
		StripLimit: parseBoolEnvDefault("STRIP_LIMIT", false),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}

	cfg.Coordinator = CoordinatorConfig{
		URL:     os.Getenv("COORDINATOR_URL"),
		User:    os.Getenv("COORDINATOR_USER"),
		Catalog: os.Getenv("COORDINATOR_CATALOG"),
		Schema:  os.Getenv("COORDINATOR_SCHEMA"),
		Source:  os.Getenv("COORDINATOR_SOURCE"),
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("POLL_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.Coordinator.PollInterval = d
	}
	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("QUERY_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.Coordinator.QueryTimeout = d
	}
	if v := os.Getenv("COORDINATOR_HEADERS"); v != "" {
		headers, err := parseHeaderList(v)
		if err != nil {
			return nil, fmt.Errorf("COORDINATOR_HEADERS: %w", err)
		}
		cfg.Coordinator.ExtraHeaders = headers
	}

	if v := os.Getenv("CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv("SUBMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("SUBMIT_RPS must be a non-negative number, got %q", v)
		}
		cfg.SubmitRPS = f
	}

	if v := os.Getenv("SCHEDULES"); v != "" {
		entries, err := parseSchedules(v)
		if err != nil {
			return nil, fmt.Errorf("SCHEDULES: %w", err)
		}
		cfg.Schedules = entries
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	if v := os.Getenv("API_KEYS"); v != "" {
		keys := strings.Split(v, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.APIKeys = compactNonEmpty(keys)
	}

	// Defaults
	if cfg.Coordinator.User == "" {
		cfg.Coordinator.User = "querybench"
	}
	if cfg.Coordinator.Source == "" {
		cfg.Coordinator.Source = "querybench"
	}
	if cfg.Coordinator.PollInterval == 0 {
		cfg.Coordinator.PollInterval = time.Second
	}
	if cfg.Coordinator.QueryTimeout == 0 {
		cfg.Coordinator.QueryTimeout = 10 * time.Minute
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "querybench.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.Coordinator.Validate(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" && len(cfg.APIKeys) == 0 {
		cfg.Warnings = append(cfg.Warnings, "no JWT_SECRET or API_KEYS set — the /v1 API is unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "" && len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("JWT_SECRET or API_KEYS must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// parseHeaderList parses "Name: value;Name2: value2" into a header map.
func parseHeaderList(s string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("header %q must be in Name: value format", part)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseSchedules parses "suite@cron;suite@cron" into schedule entries.
// Cron expressions may contain spaces, so '@' separates the suite name.
func parseSchedules(s string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		suite, expr, ok := strings.Cut(part, "@")
		suite = strings.TrimSpace(suite)
		expr = strings.TrimSpace(expr)
		if !ok || suite == "" || expr == "" {
			return nil, fmt.Errorf("schedule %q must be in suite@cron format", part)
		}
		entries = append(entries, ScheduleEntry{Suite: suite, Cron: expr})
	}
	return entries, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
