package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	defaultOpenAIModel     = "gpt-5.2-codex"
	defaultOpenAIMaxTokens = 2048
)

// OpenAIInvoker backs a resource with OpenAI's GPT models.
type OpenAIInvoker struct {
	client *openai.Client
	config ResourceConfig
}

// NewOpenAIInvoker creates an OpenAI-backed invoker.
func NewOpenAIInvoker(config ResourceConfig) (*OpenAIInvoker, error) {
	if config.Model == "" {
		config.Model = defaultOpenAIModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultOpenAIMaxTokens
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("openai config: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAIInvoker{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIInvoker) Name() string {
	return "openai"
}

// Invoke performs one completion call bounded by timeout.
func (p *OpenAIInvoker) Invoke(ctx context.Context, payload Payload, timeout time.Duration) (string, error) {
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	result, err := p.client.Responses.New(callCtx, p.buildParams(payload))
	if err != nil {
		return "", fmt.Errorf("openai invoke: %w", err)
	}

	return result.OutputText(), nil
}

func (p *OpenAIInvoker) buildParams(payload Payload) responses.ResponseNewParams {
	input := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(SystemPrompt(), responses.EasyInputMessageRoleSystem),
		responses.ResponseInputItemParamOfMessage(UserPrompt(payload), responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(p.config.Model),
		Input:           responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		MaxOutputTokens: openai.Int(int64(p.config.MaxTokens)),
	}

	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	return params
}
