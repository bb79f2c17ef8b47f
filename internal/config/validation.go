package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidTopP indicates the top_p value is out of range.
	ErrInvalidTopP = errors.New("invalid top_p")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidCacheLimit indicates the answer cache limit is out of range.
	ErrInvalidCacheLimit = errors.New("invalid cache limit")

	// ErrInvalidThreshold indicates the similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidMemoryWindow indicates the memory window is out of range.
	ErrInvalidMemoryWindow = errors.New("invalid memory window")

	// ErrInvalidSafetyCap indicates the token safety cap is out of range.
	ErrInvalidSafetyCap = errors.New("invalid token safety cap")

	// ErrInvalidMinWords indicates the answer quality bar is out of range.
	ErrInvalidMinWords = errors.New("invalid min answer words")

	// ErrInvalidDataDir indicates the data directory is invalid.
	ErrInvalidDataDir = errors.New("invalid data directory")
)

// validProviders lists the supported AI providers.
var validProviders = []string{ProviderOllama, ProviderGoogleAI, ProviderOpenAI}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.TopP <= 0.0 || c.TopP > 1.0 {
		return fmt.Errorf("%w: must be in (0.0, 1.0], got %.2f", ErrInvalidTopP, c.TopP)
	}

	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.CacheLimit < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidCacheLimit, c.CacheLimit)
	}

	// The threshold gates cosine similarity, which this system compares on
	// the [0, 1] range.
	if c.SimilarityThreshold < 0.0 || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("%w: must be between 0.0 and 1.0, got %.4f", ErrInvalidThreshold, c.SimilarityThreshold)
	}

	if c.MemoryWindow < 0 {
		return fmt.Errorf("%w: must not be negative, got %d", ErrInvalidMemoryWindow, c.MemoryWindow)
	}

	// At least one word, or the quality gate could accept empty answers.
	if c.MinAnswerWords < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMinWords, c.MinAnswerWords)
	}

	// The safety cap must be able to hold a full-size answer.
	if c.TokenSafetyCap < c.MaxTokens {
		return fmt.Errorf("%w: must be >= max_tokens (%d), got %d",
			ErrInvalidSafetyCap, c.MaxTokens, c.TokenSafetyCap)
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir cannot be empty", ErrInvalidDataDir)
	}

	return nil
}
