package genai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"campus-concierge/internal/common/config"
	commonhttp "campus-concierge/internal/common/http"
	"campus-concierge/internal/common/logger"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider uses any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	limiter     *rate.Limiter
	logger      logger.Logger
}

func NewOpenAIProvider(cfg config.GenAIConfig, log logger.Logger) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = commonhttp.NewClient(timeoutOf(cfg)).HTTPClient()

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     newLimiter(cfg.RatePerMinute),
		logger:      log.With(map[string]interface{}{"provider": ProviderOpenAI, "model": model}),
	}
}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", classify(ctx, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You answer with strict JSON only."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if stderrors.As(err, &apiErr) {
			p.logger.Warn("OpenAI API error", map[string]interface{}{
				"status": apiErr.HTTPStatusCode,
				"type":   apiErr.Type,
			})
			return "", fmt.Errorf("%w: status %d: %s", ErrGenAIRequestFailed, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrGenAIEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrGenAIEmptyResponse
	}

	p.logger.Debug("OpenAI completion received", map[string]interface{}{
		"totalTokens": resp.Usage.TotalTokens,
	})
	return text, nil
}
