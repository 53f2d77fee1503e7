// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./adjutant.yaml)
//  3. Default values
//
// Security: API keys are never logged; Config.MarshalJSON masks them.
// Validation is fail-fast with sentinel errors checked via errors.Is().
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the OpenRouter API key is not set.
	ErrMissingAPIKey = errors.New("missing OpenRouter API key")

	// ErrInvalidAddr indicates a malformed listen address.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidSlangChance indicates a slang chance outside [0, 1].
	ErrInvalidSlangChance = errors.New("slang chance must be between 0 and 1")

	// ErrInvalidSessionLimit indicates a non-positive session cap.
	ErrInvalidSessionLimit = errors.New("max sessions must be positive")

	// ErrInvalidSessionTTL indicates a non-positive idle TTL.
	ErrInvalidSessionTTL = errors.New("session TTL must be positive")

	// ErrInvalidProviderRate indicates a negative upstream rate.
	ErrInvalidProviderRate = errors.New("openrouter rate must not be negative")
)

// DefaultPersona is the system preamble seeded into new sessions when
// no persona is configured.
const DefaultPersona = "You are a helpful, concise assistant. Answer plainly and admit when you do not know something."

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// HTTP server
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`
	StaticDir   string   `mapstructure:"static_dir" json:"static_dir"`

	// Providers
	OpenRouterAPIKey  string  `mapstructure:"openrouter_api_key" json:"openrouter_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenRouterBaseURL string  `mapstructure:"openrouter_base_url" json:"openrouter_base_url"`
	OpenRouterRate    float64 `mapstructure:"openrouter_rate" json:"openrouter_rate"` // upstream requests per second (0 disables pacing)
	GeminiAPIKey      string  `mapstructure:"gemini_api_key" json:"gemini_api_key"`   // SENSITIVE: masked in MarshalJSON
	AppTitle          string  `mapstructure:"app_title" json:"app_title"`             // sent as X-Title attribution header

	// Web search
	SearchAPIKey     string `mapstructure:"search_api_key" json:"search_api_key"` // SENSITIVE: masked in MarshalJSON
	SearchBaseURL    string `mapstructure:"search_base_url" json:"search_base_url"`
	SearchMaxResults int    `mapstructure:"search_max_results" json:"search_max_results"`

	// Sessions
	MaxSessions    int           `mapstructure:"max_sessions" json:"max_sessions"`
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl" json:"session_idle_ttl"`

	// Persona and knowledge excerpts
	Persona     string `mapstructure:"persona" json:"persona"`
	ChunksFile  string `mapstructure:"chunks_file" json:"chunks_file"`
	MaxExcerpts int    `mapstructure:"max_excerpts" json:"max_excerpts"`

	// Slang postprocessor
	SlangEnabled bool     `mapstructure:"slang_enabled" json:"slang_enabled"`
	SlangWords   []string `mapstructure:"slang_words" json:"slang_words"`
	SlangChance  float64  `mapstructure:"slang_chance" json:"slang_chance"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("adjutant")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/adjutant")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":3000")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)
	v.SetDefault("static_dir", "public")

	v.SetDefault("openrouter_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter_rate", 5.0)
	v.SetDefault("app_title", "Adjutant")

	v.SetDefault("search_base_url", "https://serpapi.com/search")
	v.SetDefault("search_max_results", 5)

	v.SetDefault("max_sessions", 1000)
	v.SetDefault("session_idle_ttl", 2*time.Hour)

	v.SetDefault("persona", DefaultPersona)
	v.SetDefault("max_excerpts", 3)

	v.SetDefault("slang_enabled", false)
	v.SetDefault("slang_words", []string{"innit", "mate", "cheers"})
	v.SetDefault("slang_chance", 0.3)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly so secrets
// never need to live in a config file.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("openrouter_api_key", "OPENROUTER_API_KEY")
	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("search_api_key", "SEARCH_API_KEY")

	mustBind("addr", "ADJUTANT_ADDR")
	mustBind("cors_origins", "ADJUTANT_CORS_ORIGINS")
	mustBind("trust_proxy", "ADJUTANT_TRUST_PROXY")
	mustBind("rate_burst", "ADJUTANT_RATE_BURST")
	mustBind("static_dir", "ADJUTANT_STATIC_DIR")
	mustBind("log_level", "ADJUTANT_LOG_LEVEL")
	mustBind("log_json", "ADJUTANT_LOG_JSON")
	mustBind("chunks_file", "ADJUTANT_CHUNKS_FILE")
	mustBind("slang_enabled", "ADJUTANT_SLANG_ENABLED")
}

// Validate checks the configuration for serving. Fail-fast: a server
// that cannot reach its provider should not start.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("%w: set OPENROUTER_API_KEY", ErrMissingAPIKey)
	}
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.SlangChance < 0 || c.SlangChance > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSlangChance, c.SlangChance)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSessionLimit, c.MaxSessions)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSessionTTL, c.SessionIdleTTL)
	}
	if c.OpenRouterRate < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidProviderRate, c.OpenRouterRate)
	}
	return nil
}
