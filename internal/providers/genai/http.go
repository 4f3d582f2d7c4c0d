package genai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"campus-concierge/internal/common/config"
	commonhttp "campus-concierge/internal/common/http"
	"campus-concierge/internal/common/logger"
)

// Response shapes differ between GenAI gateways; the first non-empty path wins.
var textPaths = []string{
	"text",
	"response",
	"output",
	"choices.0.message.content",
	"choices.0.text",
}

// HTTPProvider talks to a GenAI gateway exposing POST /api/ai/generate.
type HTTPProvider struct {
	client  *commonhttp.Client
	cfg     config.GenAIConfig
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewHTTPProvider(cfg config.GenAIConfig, log logger.Logger) *HTTPProvider {
	return &HTTPProvider{
		client:  commonhttp.NewClient(timeoutOf(cfg)),
		cfg:     cfg,
		limiter: newLimiter(cfg.RatePerMinute),
		logger:  log.With(map[string]interface{}{"provider": ProviderHTTP}),
	}
}

func (p *HTTPProvider) Name() string {
	return ProviderHTTP
}

func (p *HTTPProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", classify(ctx, err)
	}

	body := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  p.cfg.MaxTokens,
		"temperature": p.cfg.Temperature,
	}
	if p.cfg.Model != "" {
		body["model"] = p.cfg.Model
	}
	headers := map[string]string{}
	if p.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.cfg.APIKey
	}

	started := time.Now()
	status, data, err := p.client.PostJSON(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/api/ai/generate", headers, body)
	if err != nil {
		return "", classify(ctx, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrGenAIRequestFailed, status)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: response is not JSON", ErrGenAIRequestFailed)
	}

	for _, path := range textPaths {
		if text := strings.TrimSpace(gjson.GetBytes(data, path).String()); text != "" {
			p.logger.Debug("GenAI completion received", map[string]interface{}{
				"path":       path,
				"length":     len(text),
				"durationMs": time.Since(started).Milliseconds(),
			})
			return text, nil
		}
	}
	return "", ErrGenAIEmptyResponse
}
