package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-opus-4-5-20251101"
	defaultAnthropicMaxTokens = 2048
)

// AnthropicInvoker backs a resource with Anthropic's Claude models.
type AnthropicInvoker struct {
	client *anthropic.Client
	config ResourceConfig
}

// NewAnthropicInvoker creates an Anthropic-backed invoker.
func NewAnthropicInvoker(config ResourceConfig) (*AnthropicInvoker, error) {
	if config.Model == "" {
		config.Model = defaultAnthropicModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultAnthropicMaxTokens
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic config: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicInvoker{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicInvoker) Name() string {
	return "anthropic"
}

// Invoke performs one completion call bounded by timeout.
func (p *AnthropicInvoker) Invoke(ctx context.Context, payload Payload, timeout time.Duration) (string, error) {
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	msg, err := p.client.Messages.New(callCtx, p.buildParams(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic invoke: %w", err)
	}

	return extractText(msg), nil
}

func (p *AnthropicInvoker) buildParams(payload Payload) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(payload))),
		},
	}

	if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}

	return params
}

func extractText(msg *anthropic.Message) string {
	var content string
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += b.Text
		}
	}
	return content
}
