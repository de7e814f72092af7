// Package config loads insightd configuration from the environment,
// with an optional YAML file override.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// TierConfig describes one logical model tier.
type TierConfig struct {
	Provider Provider `yaml:"provider"`
	Model    string   `yaml:"model"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible routers).
	BaseURL string `yaml:"base_url"`
}

// Config holds all configuration values.
type Config struct {
	// Model tiers
	FastTier TierConfig `yaml:"fast_tier"`
	DeepTier TierConfig `yaml:"deep_tier"`

	// Credentials
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
	AWSRegion       string `yaml:"aws_region"`

	// Embeddings
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// SurrealDB insight store
	StoreURL       string `yaml:"store_url"`
	StoreNamespace string `yaml:"store_namespace"`
	StoreDatabase  string `yaml:"store_database"`
	StoreUser      string `yaml:"store_user"`
	StorePass      string `yaml:"store_pass"`
	StoreAuthLevel string `yaml:"store_auth_level"`

	// Local response cache
	CachePath       string        `yaml:"cache_path"`
	LLMCacheTTL     time.Duration `yaml:"llm_cache_ttl"`
	FundamentalsTTL time.Duration `yaml:"fundamentals_ttl"`

	// Pipeline tuning
	DailyInsightCount     int     `yaml:"daily_insight_count"`
	InsightScoreThreshold float64 `yaml:"insight_score_threshold"`
	RankerMinSamples      int     `yaml:"ranker_min_samples"`

	// Feedback server
	FeedbackAddr string `yaml:"feedback_addr"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Digest output directory
	DigestDir string `yaml:"digest_dir"`
}

// Load reads configuration from environment variables. If INSIGHTD_CONFIG
// points at a YAML file, values from the file take precedence over env.
func Load() (Config, error) {
	cfg := Config{
		FastTier: TierConfig{
			Provider: Provider(getEnv("INSIGHTD_FAST_PROVIDER", "openai")),
			Model:    getEnv("INSIGHTD_FAST_MODEL", "qwen/qwen-2.5-72b-instruct"),
			BaseURL:  getEnv("INSIGHTD_FAST_BASE_URL", "https://openrouter.ai/api/v1"),
		},
		DeepTier: TierConfig{
			Provider: Provider(getEnv("INSIGHTD_DEEP_PROVIDER", "openai")),
			Model:    getEnv("INSIGHTD_DEEP_MODEL", "deepseek/deepseek-chat"),
			BaseURL:  getEnv("INSIGHTD_DEEP_BASE_URL", "https://openrouter.ai/api/v1"),
		},

		OpenAIAPIKey:    getEnv("OPENROUTER_API_KEY", os.Getenv("OPENAI_API_KEY")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		EmbedProvider:  Provider(getEnv("INSIGHTD_EMBED_PROVIDER", "ollama")),
		EmbedModel:     getEnv("INSIGHTD_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("INSIGHTD_EMBED_DIMENSION", 384),

		StoreURL:       getEnv("INSIGHTD_STORE_URL", "ws://localhost:8000/rpc"),
		StoreNamespace: getEnv("INSIGHTD_STORE_NAMESPACE", "research"),
		StoreDatabase:  getEnv("INSIGHTD_STORE_DATABASE", "insights"),
		StoreUser:      getEnv("INSIGHTD_STORE_USER", "root"),
		StorePass:      getEnv("INSIGHTD_STORE_PASS", "root"),
		StoreAuthLevel: getEnv("INSIGHTD_STORE_AUTH_LEVEL", "root"),

		CachePath:       getEnv("INSIGHTD_CACHE_PATH", defaultCachePath()),
		LLMCacheTTL:     getEnvDuration("INSIGHTD_LLM_CACHE_TTL", 24*time.Hour),
		FundamentalsTTL: getEnvDuration("INSIGHTD_FUNDAMENTALS_TTL", 24*time.Hour),

		DailyInsightCount:     getEnvInt("INSIGHTD_DAILY_INSIGHT_COUNT", 5),
		InsightScoreThreshold: getEnvFloat("INSIGHTD_SCORE_THRESHOLD", 7.0),
		RankerMinSamples:      getEnvInt("INSIGHTD_RANKER_MIN_SAMPLES", 20),

		FeedbackAddr: getEnv("INSIGHTD_FEEDBACK_ADDR", ":5000"),

		LogFile:  getEnv("INSIGHTD_LOG_FILE", "/tmp/insightd.log"),
		LogLevel: parseLogLevel(getEnv("INSIGHTD_LOG_LEVEL", "INFO")),

		DigestDir: getEnv("INSIGHTD_DIGEST_DIR", "/tmp"),
	}

	if path := os.Getenv("INSIGHTD_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	return cfg, nil
}

// applyFile overlays values from a YAML file onto the config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "insightd-cache.db"
	}
	return home + "/.insightd/cache.db"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
