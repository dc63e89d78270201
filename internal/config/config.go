// Package config loads grokway settings from the environment, the TOML config
// file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default upstream endpoints and identity used by the x.com web client.
const (
	DefaultConversationURL = "https://x.com/i/api/graphql/UBIjqHqsA5aixuibXTBheQ/CreateGrokConversation"
	DefaultResponseURL     = "https://api.x.com/2/grok/add_response.json"
	DefaultModelOptionID   = "grok-2"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:129.0) Gecko/20100101 Firefox/129.0"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":3004")
	ServerPort string

	LogLevel      string
	LogFormat     string
	EnableTracing bool

	// DBPath is the SQLite file used for request logs and usage.
	DBPath string

	// AdminPassword enables the admin API when non-empty.
	AdminPassword string

	// RequestTimeout bounds the lifetime of one chat completion.
	RequestTimeout time.Duration

	RateLimit RateLimit
	Upstream  Upstream

	// Models contains the catalog served at /models
	Models []ModelAlias
}

// RateLimit configures the per-client fixed window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Upstream is the immutable x.com session handed to the Grok client.
type Upstream struct {
	AuthToken       string
	Cookie          string
	CSRFToken       string
	ModelOptionID   string
	ConversationURL string
	ResponseURL     string
	UserAgent       string
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() (*Config, error) {
	fileConfig, err := LoadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigPath(), err)
	}
	return fromFile(fileConfig)
}

func fromFile(fc *FileConfig) (*Config, error) {
	timeout, err := getEnvDurationOrFile("REQUEST_TIMEOUT", fc.RequestTimeout, 5*time.Minute)
	if err != nil {
		return nil, err
	}
	window, err := getEnvDurationOrFile("RATE_LIMIT_WINDOW", fc.RateLimit.Window, time.Minute)
	if err != nil {
		return nil, err
	}
	requests, err := getEnvIntOrFile("RATE_LIMIT_REQUESTS", fc.RateLimit.Requests, 5)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     getEnvOrFile("SERVER_PORT", fc.ServerPort, ":3004"),
		LogLevel:       getEnvOrFile("LOG_LEVEL", fc.LogLevel, "info"),
		LogFormat:      getEnvOrFile("LOG_FORMAT", fc.LogFormat, "text"),
		EnableTracing:  getEnvBoolOrFile("ENABLE_TRACING", fc.EnableTracing, false),
		DBPath:         getEnvOrFile("GROKWAY_DB_PATH", fc.DBPath, DBPath()),
		AdminPassword:  getEnvOrFile("GROKWAY_ADMIN_PASSWORD", fc.AdminPassword, ""),
		RequestTimeout: timeout,
		RateLimit: RateLimit{
			Requests: requests,
			Window:   window,
		},
		Upstream: Upstream{
			AuthToken:       getEnvOrFile("GROK_AUTH_TOKEN", fc.Upstream.AuthToken, ""),
			Cookie:          getEnvOrFile("GROK_COOKIE", fc.Upstream.Cookie, ""),
			CSRFToken:       getEnvOrFile("GROK_CSRF_TOKEN", fc.Upstream.CSRFToken, ""),
			ModelOptionID:   getEnvOrFile("GROK_MODEL_OPTION_ID", fc.Upstream.ModelOptionID, DefaultModelOptionID),
			ConversationURL: getEnvOrFile("GROK_CONVERSATION_URL", fc.Upstream.ConversationURL, DefaultConversationURL),
			ResponseURL:     getEnvOrFile("GROK_RESPONSE_URL", fc.Upstream.ResponseURL, DefaultResponseURL),
			UserAgent:       getEnvOrFile("GROK_USER_AGENT", fc.Upstream.UserAgent, DefaultUserAgent),
		},
		Models: fc.Models,
	}, nil
}

// Validate reports every setting that makes the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Upstream.AuthToken == "" {
		errs = append(errs, errors.New("upstream auth_token is required"))
	}
	if c.Upstream.Cookie == "" {
		errs = append(errs, errors.New("upstream cookie is required"))
	}
	if c.Upstream.CSRFToken == "" {
		errs = append(errs, errors.New("upstream csrf_token is required"))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("rate_limit.requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	}
	if fileValue != 0 {
		return fileValue, nil
	}
	return defaultValue, nil
}

// getEnvDurationOrFile parses durations such as "90s" or "5m".
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrFile(key, fileValue, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
