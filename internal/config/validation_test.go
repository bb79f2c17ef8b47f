package config

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes validation; tests mutate
// single fields from here.
func validConfig() *Config {
	return &Config{
		Provider:            ProviderOllama,
		ModelName:           "llama3.2",
		EmbedderModel:       "nomic-embed-text",
		OllamaHost:          "http://localhost:11434",
		Temperature:         0.7,
		TopP:                0.9,
		MaxTokens:           512,
		StopSequences:       []string{"User:", "Assistant:"},
		CacheLimit:          1000,
		SimilarityThreshold: 0.85,
		MemoryWindow:        5,
		MinAnswerWords:      3,
		TokenSafetyCap:      1000,
		DataDir:             "/tmp/aigent-data",
		CacheFile:           "faq_cache.json",
		QuestionLogFile:     "questions_log.json",
		VectorDir:           "vectors",
		KBCollection:        "website_kb",
	}
}

func TestValidateOK(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateNil(t *testing.T) {
	t.Parallel()

	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("err = %v, want ErrConfigNil", err)
	}
}

func TestValidateFieldErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "llamacpp" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "zero top_p",
			mutate:  func(c *Config) { c.TopP = 0 },
			wantErr: ErrInvalidTopP,
		},
		{
			name:    "top_p above one",
			mutate:  func(c *Config) { c.TopP = 1.2 },
			wantErr: ErrInvalidTopP,
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.MaxTokens = 0 },
			wantErr: ErrInvalidMaxTokens,
		},
		{
			name:    "zero cache limit",
			mutate:  func(c *Config) { c.CacheLimit = 0 },
			wantErr: ErrInvalidCacheLimit,
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.SimilarityThreshold = 1.1 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "negative memory window",
			mutate:  func(c *Config) { c.MemoryWindow = -1 },
			wantErr: ErrInvalidMemoryWindow,
		},
		{
			name:    "negative min words",
			mutate:  func(c *Config) { c.MinAnswerWords = -1 },
			wantErr: ErrInvalidMinWords,
		},
		{
			name:    "zero min words",
			mutate:  func(c *Config) { c.MinAnswerWords = 0 },
			wantErr: ErrInvalidMinWords,
		},
		{
			name:    "safety cap below max tokens",
			mutate:  func(c *Config) { c.TokenSafetyCap = 100 },
			wantErr: ErrInvalidSafetyCap,
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrInvalidDataDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullModelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"ollama plain", ProviderOllama, "llama3.2", "ollama/llama3.2"},
		{"googleai plain", ProviderGoogleAI, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"already qualified", ProviderOllama, "openai/gpt-4o", "openai/gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Provider: tt.provider, ModelName: tt.model}
			if got := cfg.FullModelName(); got != tt.want {
				t.Errorf("FullModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if got, want := cfg.CachePath(), "/tmp/aigent-data/faq_cache.json"; got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
	if got, want := cfg.QuestionLogPath(), "/tmp/aigent-data/questions_log.json"; got != want {
		t.Errorf("QuestionLogPath() = %q, want %q", got, want)
	}
	if got, want := cfg.VectorPath(), "/tmp/aigent-data/vectors"; got != want {
		t.Errorf("VectorPath() = %q, want %q", got, want)
	}
}
