package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"therapy-notes/pkg/config"
	"therapy-notes/pkg/logger"
)

// OpenAI implements Generator on the chat completions API.
type OpenAI struct {
	client  *openai.Client
	timeout time.Duration
}

func NewOpenAI(cfg config.LLMConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" && cfg.BaseURL != "https://api.openai.com/v1" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	logger.Info().Str("baseURL", cfg.BaseURL).Msg("OpenAI initialized")

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: cfg.RequestTimeout,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
		{Role: openai.ChatMessageRoleUser, Content: req.User},
	}

	logger.Debug().
		Str("stage", req.Stage).
		Str("model", req.Model).
		Int("maxTokens", req.MaxTokens).
		Int("promptChars", len(req.System)+len(req.User)).
		Msg("openai request")

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		// a zero temperature is dropped by omitempty and the server
		// default applies instead
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		logger.Error().Err(err).Str("stage", req.Stage).Msg("completion failed")
		return "", fmt.Errorf("%s completion failed: %w", req.Stage, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: %w", req.Stage, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	logger.Debug().
		Str("stage", req.Stage).
		Str("finishReason", string(resp.Choices[0].FinishReason)).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("openai response")

	return content, nil
}
