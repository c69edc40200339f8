// Package llm wraps the language-model endpoint: one connector holding the
// model plus call options, and the parsing/repair pipeline that turns a
// completion into the four RCA narrative fields.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Options configures a connector.
type Options struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Connector is a configured connection to a language model.
type Connector struct {
	llm     llms.Model
	options Options
}

// NewConnector creates a connector against the OpenAI-compatible endpoint.
func NewConnector(options Options) (*Connector, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if options.Model == "" {
		options.Model = "gpt-4o"
	}

	opts := []openai.Option{
		openai.WithToken(options.APIKey),
		openai.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	log.Debug().
		Str("model", options.Model).
		Float64("temperature", options.Temperature).
		Int("max_tokens", options.MaxTokens).
		Msg("Created LLM connector")

	return &Connector{llm: model, options: options}, nil
}

// Complete sends a system instruction plus a user prompt and returns the
// raw text completion. Transport errors come back as plain errors; the
// caller decides how to degrade.
func (c *Connector) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	callOptions := []llms.CallOption{
		llms.WithTemperature(c.options.Temperature),
	}
	if c.options.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(c.options.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, callOptions...)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Content, nil
}

// Model returns the configured model name.
func (c *Connector) Model() string {
	return c.options.Model
}
