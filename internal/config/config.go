// Package config loads the application configuration from an optional file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config contains all configuration for the research tools
type Config struct {
	Keys       APIKeys          `json:"keys" mapstructure:"keys"`
	OpenAI     OpenAIConfig     `json:"openai" mapstructure:"openai"`
	Perplexity PerplexityConfig `json:"perplexity" mapstructure:"perplexity"`
	Bing       BingConfig       `json:"bing" mapstructure:"bing"`
	Fetch      FetchConfig      `json:"fetch" mapstructure:"fetch"`
	Research   ResearchConfig   `json:"research" mapstructure:"research"`

	// Timeout is the HTTP client timeout in seconds
	Timeout int `json:"timeout" mapstructure:"timeout" validate:"min=1,max=600"`

	// Logging
	LogLevel string `json:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`
}

// APIKeys holds the three required secrets
type APIKeys struct {
	Bing       string `json:"bing_api_key" mapstructure:"bing_api_key" validate:"required"`
	OpenAI     string `json:"openai_api_key" mapstructure:"openai_api_key" validate:"required"`
	Perplexity string `json:"perplexity_api_key" mapstructure:"perplexity_api_key" validate:"required"`
}

// OpenAIConfig configures the completion gateway
type OpenAIConfig struct {
	Model   string `json:"model" mapstructure:"model" validate:"required"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`
}

// PerplexityConfig configures the summarizing search gateway
type PerplexityConfig struct {
	Model   string `json:"model" mapstructure:"model" validate:"required"`
	BaseURL string `json:"base_url" mapstructure:"base_url" validate:"required,url"`
}

// BingConfig configures the ranked search gateway
type BingConfig struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	Count    int    `json:"count" mapstructure:"count" validate:"min=0,max=50"`
	Market   string `json:"market,omitempty" mapstructure:"market"`
}

// FetchConfig configures the page fetcher
type FetchConfig struct {
	UserAgent string `json:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBytes  int64  `json:"max_bytes" mapstructure:"max_bytes" validate:"min=1024"`
}

// ResearchConfig tunes the agents
type ResearchConfig struct {
	TopN          int `json:"top_n" mapstructure:"top_n" validate:"min=1,max=10"`
	MaxToolRounds int `json:"max_tool_rounds" mapstructure:"max_tool_rounds" validate:"min=1,max=20"`
}

// envKeys maps config keys to the environment variables that override them
var envKeys = map[string]string{
	"keys.bing_api_key":       "BING_API_KEY",
	"keys.openai_api_key":     "OPENAI_API_KEY",
	"keys.perplexity_api_key": "PERPLEXITY_API_KEY",
	"openai.model":            "OPENAI_MODEL",
	"openai.base_url":         "OPENAI_BASE_URL",
	"perplexity.model":        "PERPLEXITY_MODEL",
	"perplexity.base_url":     "PERPLEXITY_BASE_URL",
	"bing.endpoint":           "BING_ENDPOINT",
	"log_level":               "LOG_LEVEL",
	"log_file":                "LOG_FILE",
}

// DefaultConfig returns a default configuration without secrets
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Perplexity: PerplexityConfig{
			Model:   "sonar",
			BaseURL: "https://api.perplexity.ai",
		},
		Bing: BingConfig{
			Endpoint: "https://api.bing.microsoft.com/v7.0/search",
			Count:    10,
		},
		Fetch: FetchConfig{
			UserAgent: "fodmap-research/1.0",
			MaxBytes:  2 << 20,
		},
		Research: ResearchConfig{
			TopN:          3,
			MaxToolRounds: 5,
		},
		Timeout:  60,
		LogLevel: "info",
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first; path may name an optional JSON or YAML
// config file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadConfigFromFile loads and validates a JSON or YAML config file without
// consulting the environment
func LoadConfigFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every leaf of cfg with viper so that env bindings
// and partial config files resolve against a complete key set
func setDefaults(v *viper.Viper, cfg *Config) {
	data, _ := json.Marshal(cfg)
	var tree map[string]any
	_ = json.Unmarshal(data, &tree)

	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for key, value := range node {
			full := key
			if prefix != "" {
				full = prefix + "." + key
			}
			if child, ok := value.(map[string]any); ok {
				walk(full, child)
				continue
			}
			v.SetDefault(full, value)
		}
	}
	walk("", tree)
	// omitempty fields never reach the tree
	v.SetDefault("openai.base_url", cfg.OpenAI.BaseURL)
	v.SetDefault("bing.market", cfg.Bing.Market)
}

// Validate validates the configuration. Missing secrets are reported by the
// name of their environment variable.
func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if env, ok := secretEnv[fe.StructNamespace()]; ok && fe.Tag() == "required" {
			missing = append(missing, env)
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s failed %s", fe.StructNamespace(), fe.Tag()))
	}
	sort.Strings(missing)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required setting(s): "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)
	return errors.New(strings.Join(parts, "; "))
}

var secretEnv = map[string]string{
	"Config.Keys.Bing":       "BING_API_KEY",
	"Config.Keys.OpenAI":     "OPENAI_API_KEY",
	"Config.Keys.Perplexity": "PERPLEXITY_API_KEY",
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String returns a string representation of the config (with secrets masked)
func (c *Config) String() string {
	configCopy := *c
	configCopy.Keys = APIKeys{
		Bing:       mask(c.Keys.Bing),
		OpenAI:     mask(c.Keys.OpenAI),
		Perplexity: mask(c.Keys.Perplexity),
	}

	data, _ := json.MarshalIndent(configCopy, "", "  ")
	return string(data)
}

func mask(secret string) string {
	return strings.Repeat("*", len(secret))
}
