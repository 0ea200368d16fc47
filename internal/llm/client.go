package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"pulsefit/coach-app/internal/config"
)

// ErrUnavailable signals that no LLM credentials are configured. Callers
// surface it as a distinct "service unavailable" condition instead of a
// generic failure.
var ErrUnavailable = errors.New("llm client is not configured")

// Client submits a prompt to the external text-completion provider and
// returns its raw completion. The completion is expected, but not
// guaranteed, to contain a single JSON object.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Available() bool
}

// NewClient builds a Client from configuration. Missing credentials yield
// an explicit unavailable client rather than a nil to check at call sites.
func NewClient(cfg config.LLMConfig) Client {
	if cfg.APIKey == "" {
		return unavailableClient{}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

type openAIClient struct {
	client openai.Client
	model  string
}

func (c *openAIClient) Available() bool { return true }

// Complete performs a single chat completion, asking the provider for a
// response matching the plan document schema. No retries: a transient
// failure surfaces to the caller, who may retry at a higher level.
func (c *openAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "training_plan",
		Description: openai.String("Methodology recommendation with a weekly training plan"),
		Schema:      PlanDocumentSchema,
		Strict:      openai.Bool(true),
	}
	chat, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	})
	if err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}

type unavailableClient struct{}

func (unavailableClient) Available() bool { return false }

func (unavailableClient) Complete(ctx context.Context, system, user string) (string, error) {
	return "", ErrUnavailable
}
