package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort     string        `toml:"server_port"`
	LogLevel       string        `toml:"log_level"`
	LogFormat      string        `toml:"log_format"`
	EnableTracing  *bool         `toml:"enable_tracing"`
	DBPath         string        `toml:"db_path"`
	AdminPassword  string        `toml:"admin_password"`
	RequestTimeout string        `toml:"request_timeout"`
	RateLimit      FileRateLimit `toml:"rate_limit"`
	Upstream       FileUpstream  `toml:"upstream"`
	Models         []ModelAlias  `toml:"models"`
}

// FileRateLimit is the [rate_limit] table.
type FileRateLimit struct {
	Requests int    `toml:"requests"`
	Window   string `toml:"window"`
}

// FileUpstream is the [upstream] table holding the x.com session secrets.
type FileUpstream struct {
	AuthToken       string `toml:"auth_token"`
	Cookie          string `toml:"cookie"`
	CSRFToken       string `toml:"csrf_token"`
	ModelOptionID   string `toml:"model_option_id"`
	ConversationURL string `toml:"conversation_url"`
	ResponseURL     string `toml:"response_url"`
	UserAgent       string `toml:"user_agent"`
}

// ModelAlias maps a client-facing model slug to an upstream system prompt.
type ModelAlias struct {
	Slug         string `toml:"slug"`
	Name         string `toml:"name"`
	Description  string `toml:"description"`
	SystemPrompt string `toml:"system_prompt"`
}

// ConfigPath returns the path to the config file (~/.grokway/config.toml).
// GROKWAY_CONFIG overrides the location.
func ConfigPath() string {
	if p := os.Getenv("GROKWAY_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	return loadFileAt(ConfigPath())
}

func loadFileAt(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	defaultConfig := `# Grokway Configuration
# server_port = ":3004"
# log_level = "info"        # debug, info, warn, error
# log_format = "text"       # text or json
# enable_tracing = false
# request_timeout = "5m"
# admin_password = ""       # enables /api/admin when set

# [rate_limit]
# requests = 5
# window = "60s"

# x.com session used for every upstream call (required)
# [upstream]
# auth_token = ""
# cookie = ""
# csrf_token = ""
# model_option_id = "grok-2"

# Model catalog served at /models; slug selects the upstream system prompt
# [[models]]
# slug = "fun"
# name = "Grok Fun"
# description = "Grok model with a fun personality"
# system_prompt = "fun"
`

	return os.WriteFile(path, []byte(defaultConfig), 0600)
}
