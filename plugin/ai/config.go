package ai

import (
	"time"

	"github.com/evelynchat/evelyn/internal/profile"
)

// LLMConfig holds the completion gateway configuration.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	MaxRetries    int
	Timeout       time.Duration
	MaxConcurrent int64
}

// DefaultLLMConfig returns the default configuration.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		BaseURL:       "https://api.openai.com/v1",
		Model:         "gpt-4o-mini",
		Temperature:   0.8,
		MaxRetries:    3,
		Timeout:       30 * time.Second,
		MaxConcurrent: 8,
	}
}

// NewLLMConfigFromProfile builds the gateway configuration from the
// server profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := DefaultLLMConfig()
	cfg.APIKey = p.OpenAIAPIKey
	if p.OpenAIBaseURL != "" {
		cfg.BaseURL = p.OpenAIBaseURL
	}
	if p.ChatModel != "" {
		cfg.Model = p.ChatModel
	}
	if p.Temperature > 0 {
		cfg.Temperature = p.Temperature
	}
	return cfg
}
