package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"facelyze-api/internal/config"
)

var (
	ErrUnavailable   = errors.New("model temporarily unavailable")
	ErrInvalidOutput = errors.New("model output failed validation")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Image is an inline attachment sent with a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is one single-turn model call.
type Request struct {
	Flow   string
	System string
	Prompt string
	Images []Image
	// JSON asks the model for a bare JSON object.
	JSON bool
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// NewProvider builds the configured backend.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm api key is empty")
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
