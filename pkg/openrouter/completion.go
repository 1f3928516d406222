package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

var _ contractx.ModelInvoker = (*CompletionInvoker)(nil)

// CompletionInvoker sends a prompt as a single chat completion request
// through the OpenAI SDK, bypassing the eino graph.
type CompletionInvoker struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int64
}

func NewCompletionInvoker(client *openaisdk.Client, cfg Config, systemPrompt string) (*CompletionInvoker, error) {
	if client == nil {
		return nil, errors.New("openrouter: client is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	inv := &CompletionInvoker{
		client:       client,
		model:        modelName,
		systemPrompt: strings.TrimSpace(systemPrompt),
		temperature:  cfg.Temperature,
	}
	if cfg.MaxCompletionToken != nil {
		inv.maxTokens = int64(*cfg.MaxCompletionToken)
	}
	return inv, nil
}

func (c *CompletionInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openaisdk.SystemMessage(c.systemPrompt))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    messages,
		Temperature: openaisdk.Float(float64(c.temperature)),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w: no choices returned", contractx.ErrModelInvoke, contractx.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %w", contractx.ErrModelInvoke, contractx.ErrEmptyResponse)
	}
	return content, nil
}
