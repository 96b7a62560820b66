package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	CLIP     CLIPConfig
	LLM      LLMConfig
	Scraper  ScraperConfig
	Pipeline PipelineConfig
	Wardrobe WardrobeConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CLIPConfig holds embedding-service configuration
type CLIPConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LLMConfig holds language-model configuration. The backend is an
// OpenAI-compatible chat completions endpoint (e.g. a local Ollama server);
// it being unreachable is expected and handled by rule-based fallbacks.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// ScraperConfig holds web-scraper configuration
type ScraperConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxImages          int           `mapstructure:"max_images"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// PipelineConfig holds analysis-pipeline configuration
type PipelineConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// WardrobeConfig holds catalog persistence configuration
type WardrobeConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fashionassist/")

	v.SetEnvPrefix("FASHIONASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("clip.base_url", "http://localhost:8091")
	v.SetDefault("clip.timeout", "30s")
	v.SetDefault("clip.cache_ttl", "24h")

	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "qwen3:0.6b")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.enabled", true)

	v.SetDefault("scraper.timeout", "10s")
	v.SetDefault("scraper.max_images", 3)
	v.SetDefault("scraper.requests_per_second", 2.0)
	v.SetDefault("scraper.enable_debug_logging", false)

	v.SetDefault("pipeline.output_dir", "data/pipeline_output")

	v.SetDefault("wardrobe.data_dir", "data")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.CLIP.BaseURL == "" {
		return fmt.Errorf("CLIP base URL is required (set FASHIONASSIST_CLIP_BASE_URL)")
	}

	if config.LLM.Enabled && config.LLM.BaseURL == "" {
		return fmt.Errorf("LLM base URL is required when LLM is enabled")
	}

	if config.Scraper.MaxImages <= 0 {
		return fmt.Errorf("scraper max_images must be positive, got: %d", config.Scraper.MaxImages)
	}

	if config.Scraper.RequestsPerSecond <= 0 {
		return fmt.Errorf("scraper requests_per_second must be positive, got: %f", config.Scraper.RequestsPerSecond)
	}

	return nil
}
