package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the configuration for the service. Stage credentials and
// tuning are consumed by the stage implementations; the orchestrator itself
// only reads the default parallelism flag.
type Settings struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`
	LogLevel string `mapstructure:"log_level"`

	// API keys accepted by the HTTP auth middleware (comma-separated env).
	APIKeys           []string `mapstructure:"api_keys"`
	RateLimitRequests int      `mapstructure:"rate_limit_requests"`
	RateLimitWindow   int      `mapstructure:"rate_limit_window"` // seconds

	LLM struct {
		Provider        string  `mapstructure:"provider"` // openai or anthropic
		OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
		AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
		Model           string  `mapstructure:"model"`
		MaxTokens       int     `mapstructure:"max_tokens"`
		Temperature     float64 `mapstructure:"temperature"`
	} `mapstructure:"llm"`

	Research struct {
		SerpAPIKey string `mapstructure:"serp_api_key"`
		Timeout    int    `mapstructure:"timeout"` // seconds
		CacheTTL   int64  `mapstructure:"cache_ttl"`
		CacheSize  int64  `mapstructure:"cache_size"`
	} `mapstructure:"research"`

	// DatabaseURL selects the Postgres store when set; empty means in-memory.
	DatabaseURL string `mapstructure:"database_url"`

	ParallelExecution bool `mapstructure:"parallel_execution"`
}

// Load reads settings from environment variables (nested keys use
// underscores, e.g. LLM_PROVIDER, SERVER_PORT), applying defaults for
// anything unset.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("api_keys", []string{})
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", 60)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("research.serp_api_key", "")
	v.SetDefault("research.timeout", 10)
	v.SetDefault("research.cache_ttl", 3600)
	v.SetDefault("research.cache_size", 10000)
	v.SetDefault("database_url", "")
	v.SetDefault("parallel_execution", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}
	// Comma-separated API_KEYS from the environment arrive as one element.
	if len(settings.APIKeys) == 1 && strings.Contains(settings.APIKeys[0], ",") {
		settings.APIKeys = strings.Split(settings.APIKeys[0], ",")
	}
	return &settings, nil
}
