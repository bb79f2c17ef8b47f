// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.response-aigent/config.yaml, or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, generation parameters (temperature, top_p, stops)
//   - Resolution: cache limit, similarity threshold, memory window, quality bar
//   - Storage: data directory, cache/question-log file names, vector store dir
//   - Observability: optional OTLP trace agent endpoint
//
// Validation is fail-fast via Validate() in validation.go, using sentinel
// errors so callers can check with errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

const (
	// DefaultCacheLimit bounds the exact-match answer cache.
	DefaultCacheLimit = 1000

	// DefaultSimilarityThreshold gates semantic FAQ matches (inclusive).
	DefaultSimilarityThreshold = 0.85

	// DefaultMemoryWindow is the number of prior conversation turns included
	// in the generation prompt.
	DefaultMemoryWindow = 5

	// DefaultTokenSafetyCap bounds tokens consumed per request even when the
	// engine never emits a stop condition.
	DefaultTokenSafetyCap = 1000
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`             // "ollama" (default), "googleai", "openai"
	ModelName     string  `mapstructure:"model_name" json:"model_name"`         // e.g. "llama3.2", "gemini-2.5-flash"
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"` // e.g. "nomic-embed-text"
	OllamaHost    string  `mapstructure:"ollama_host" json:"ollama_host"`
	Temperature   float64 `mapstructure:"temperature" json:"temperature"`
	TopP          float64 `mapstructure:"top_p" json:"top_p"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	StopSequences []string `mapstructure:"stop_sequences" json:"stop_sequences"`

	// Resolution pipeline configuration
	CacheLimit          int     `mapstructure:"cache_limit" json:"cache_limit"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	MemoryWindow        int     `mapstructure:"memory_window" json:"memory_window"`
	MinAnswerWords      int     `mapstructure:"min_answer_words" json:"min_answer_words"`
	TokenSafetyCap      int     `mapstructure:"token_safety_cap" json:"token_safety_cap"`

	// Prompt template override. Empty means the built-in assistant persona.
	PromptTemplate string `mapstructure:"prompt_template" json:"prompt_template"`

	// Storage configuration
	DataDir         string `mapstructure:"data_dir" json:"data_dir"`
	CacheFile       string `mapstructure:"cache_file" json:"cache_file"`
	QuestionLogFile string `mapstructure:"question_log_file" json:"question_log_file"`
	VectorDir       string `mapstructure:"vector_dir" json:"vector_dir"`
	KBCollection    string `mapstructure:"kb_collection" json:"kb_collection"`

	// Observability configuration. Empty disables trace export.
	OTLPAgentHost string `mapstructure:"otlp_agent_host" json:"otlp_agent_host"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".response-aigent")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing configuration file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	// AI defaults. Ollama keeps everything local, matching the deployment
	// this assistant ships with.
	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("model_name", "llama3.2")
	v.SetDefault("embedder_model", "nomic-embed-text")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("top_p", 0.9)
	v.SetDefault("max_tokens", 512)
	v.SetDefault("stop_sequences", []string{"User:", "Assistant:"})

	// Resolution defaults
	v.SetDefault("cache_limit", DefaultCacheLimit)
	v.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("memory_window", DefaultMemoryWindow)
	v.SetDefault("min_answer_words", 3)
	v.SetDefault("token_safety_cap", DefaultTokenSafetyCap)

	// Storage defaults
	v.SetDefault("data_dir", filepath.Join(configDir, "data"))
	v.SetDefault("cache_file", "faq_cache.json")
	v.SetDefault("question_log_file", "questions_log.json")
	v.SetDefault("vector_dir", "vectors")
	v.SetDefault("kb_collection", "website_kb")
}

// bindEnvVariables binds environment variable overrides explicitly.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the Genkit
// provider plugins, not via viper.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "AIGENT_PROVIDER")
	mustBind("model_name", "AIGENT_MODEL_NAME")
	mustBind("embedder_model", "AIGENT_EMBEDDER_MODEL")
	mustBind("ollama_host", "AIGENT_OLLAMA_HOST")
	mustBind("data_dir", "AIGENT_DATA_DIR")
	mustBind("otlp_agent_host", "AIGENT_OTLP_AGENT_HOST")
}

// CachePath returns the full path of the persisted answer cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, c.CacheFile)
}

// QuestionLogPath returns the full path of the persisted question log file.
func (c *Config) QuestionLogPath() string {
	return filepath.Join(c.DataDir, c.QuestionLogFile)
}

// VectorPath returns the directory holding the persistent vector collection.
func (c *Config) VectorPath() string {
	return filepath.Join(c.DataDir, c.VectorDir)
}

// FullModelName returns the provider-qualified model name for Genkit.
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	for _, r := range c.ModelName {
		if r == '/' {
			return c.ModelName
		}
	}
	return c.Provider + "/" + c.ModelName
}
