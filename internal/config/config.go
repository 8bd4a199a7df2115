package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional rotated JSON log file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	Store        string // "redis" | "memory"
	SettingsFile string // optional YAML settings file, watched for changes

	// GitHub
	GitHubAPIURL      string        // REST API root
	GitHubWebURL      string        // origin of the OAuth and app install pages
	OAuthClientID     string        // legacy OAuth app client id (device flow)
	AppClientID       string        // GitHub App client id
	AppSlug           string        // GitHub App slug, used for install URL and matching installations
	AppID             int64         // GitHub App id, alternative installation match
	AppRedirectURI    string        // callback registered for the app
	RelayURL          string        // token exchange relay endpoint
	HTTPTimeout       time.Duration // timeout for each GitHub call
	ConflictRetries   int           // re-read/merge/write attempts after a sha conflict
	InstallPoll       time.Duration // interval between installation checks
	InstallTimeout    time.Duration // give up waiting for installation after this
	RateLimitRequests int           // control API requests per window, 0 disables
	RateLimitWindow   time.Duration

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "127.0.0.1/32, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// Load reads the configuration from the environment. It panics on invalid
// required values, the process cannot do anything useful without them.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      normalizePort(getenv("GHCLIP_PORT", ":8080")),
		ShutdownTimeout: mustDuration("GHCLIP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:      getenv("GHCLIP_LOG_LEVEL", "info"),
		PrettyLog:     mustBool("GHCLIP_PRETTY_LOG", true),
		LogFile:       getenv("GHCLIP_LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("GHCLIP_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getenvInt("GHCLIP_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getenvInt("GHCLIP_LOG_MAX_AGE_DAYS", 28),

		Store:        strings.ToLower(getenv("GHCLIP_STORE", StoreRedis)),
		SettingsFile: getenv("GHCLIP_SETTINGS_FILE", ""),

		// GitHub
		GitHubAPIURL:      getenv("GITHUB_API_URL", "https://api.github.com"),
		GitHubWebURL:      getenv("GITHUB_WEB_URL", "https://github.com"),
		OAuthClientID:     getenv("GITHUB_OAUTH_CLIENT_ID", ""),
		AppClientID:       getenv("GITHUB_APP_CLIENT_ID", ""),
		AppSlug:           getenv("GITHUB_APP_SLUG", ""),
		AppID:             int64(getenvInt("GITHUB_APP_ID", 0)),
		AppRedirectURI:    getenv("GITHUB_APP_REDIRECT_URI", ""),
		RelayURL:          getenv("GHCLIP_RELAY_URL", ""),
		HTTPTimeout:       mustDuration("GHCLIP_HTTP_TIMEOUT", 30*time.Second),
		ConflictRetries:   getenvInt("GHCLIP_CONFLICT_RETRIES", 3),
		InstallPoll:       mustDuration("GHCLIP_INSTALL_POLL_INTERVAL", 5*time.Second),
		InstallTimeout:    mustDuration("GHCLIP_INSTALL_TIMEOUT", 10*time.Minute),
		RateLimitRequests: getenvInt("GHCLIP_RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   mustDuration("GHCLIP_RATE_LIMIT_WINDOW", time.Minute),

		// Redis settings
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("REDIS_USER", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("GHCLIP_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:   mustBool("GHCLIP_TRUST_PROXY", false),
	}

	if cfg.Store != StoreRedis && cfg.Store != StoreMemory {
		panic(fmt.Sprintf("❌ FATAL: GHCLIP_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}
	if cfg.Store == StoreRedis {
		cfg.RedisAddr = requireEnvDefault("REDIS_ADDR", cfg.RedisAddr)
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// AppConfigured reports whether enough is set for the GitHub App flow.
func (c Config) AppConfigured() bool {
	return c.AppClientID != "" && c.AppSlug != "" && c.RelayURL != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireEnvDefault panics only when both the variable and its default are empty.
func requireEnvDefault(key, def string) string {
	if def != "" && os.Getenv(key) == "" {
		return def
	}
	return requireEnv(key)
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizePort accepts "8080" as well as ":8080" and "127.0.0.1:8080".
func normalizePort(p string) string {
	if p == "" || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
