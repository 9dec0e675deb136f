package perception

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
)

// ClientConfig selects and configures an LLM backend.
type ClientConfig struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewClientFromConfig builds an LLMClient for the configured provider.
// An empty provider or API key falls back to environment detection.
func NewClientFromConfig(cfg ClientConfig) (LLMClient, error) {
	provider := Provider(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))
	if provider == "" || cfg.APIKey == "" {
		detected, key := DetectProvider()
		if provider == "" {
			provider = detected
		}
		if cfg.APIKey == "" {
			cfg.APIKey = key
		}
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set DEEPSEEK_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch provider {
	case ProviderDeepSeek:
		dc := DefaultDeepSeekConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			dc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			dc.Model = cfg.Model
		}
		dc.Timeout = cfg.Timeout
		return NewDeepSeekClientWithConfig(dc), nil
	case ProviderOpenAI:
		dc := DeepSeekConfig{
			APIKey:  cfg.APIKey,
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: cfg.Timeout,
		}
		if cfg.BaseURL != "" {
			dc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			dc.Model = cfg.Model
		}
		return NewDeepSeekClientWithConfig(dc), nil
	case ProviderGemini:
		gc := DefaultGeminiConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			gc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		gc.Timeout = cfg.Timeout
		return NewGeminiClientWithConfig(gc), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
}

// DetectProvider inspects the environment for API keys.
// DeepSeek wins over OpenAI, OpenAI over Gemini.
func DetectProvider() (Provider, string) {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		return ProviderDeepSeek, key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return ProviderOpenAI, key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return ProviderGemini, key
	}
	return ProviderDeepSeek, ""
}
