// Package genai adapts text completion backends to the concierge engine.
package genai

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/logger"
)

var (
	ErrGenAIRequestFailed = stderrors.New("genai request failed")
	ErrGenAITimeout       = stderrors.New("genai request timed out")
	ErrGenAIEmptyResponse = stderrors.New("genai returned no text")
)

// Provider is satisfied by every backend in this package.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// New builds the configured provider. It returns (nil, nil) when no provider
// is configured, which leaves every LLM stage disabled.
func New(cfg config.GenAIConfig, log logger.Logger) (Provider, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	switch cfg.Provider {
	case "":
		return nil, nil
	case ProviderHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("genai provider %q requires base_url", cfg.Provider)
		}
		return NewHTTPProvider(cfg, log), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown genai provider %q", cfg.Provider)
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func timeoutOf(cfg config.GenAIConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 8 * time.Second
	}
	return time.Duration(cfg.Timeout) * time.Millisecond
}

// classify maps transport errors onto the package sentinels.
func classify(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrGenAITimeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("%w: %v", ErrGenAIRequestFailed, err)
}
