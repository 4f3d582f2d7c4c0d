package concierge

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/tidwall/gjson"

	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/validation"
)

// extractJSONObject returns the JSON object embedded in model output. The
// whole text is tried first, then the outermost {...} span.
func extractJSONObject(text string) ([]byte, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	if gjson.Valid(text) && gjson.Parse(text).IsObject() {
		return []byte(text), true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	span := text[start : end+1]
	if !gjson.Valid(span) || !gjson.Parse(span).IsObject() {
		return nil, false
	}
	return []byte(span), true
}

// decodeModelReply extracts and schema-checks a model reply.
func decodeModelReply(text string, schema *validation.Schema) ([]byte, error) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return nil, errors.NewLLMResponseInvalidError("no JSON object in model output")
	}
	if err := schema.ValidateBytes(raw).Err(); err != nil {
		return nil, errors.NewLLMResponseInvalidError(err.Error())
	}
	return raw, nil
}

// complete runs one bounded provider call and maps failures onto error codes.
func complete(ctx context.Context, p CompletionProvider, prompt string) (string, error) {
	text, err := p.Complete(ctx, prompt)
	if err == nil {
		return text, nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", errors.NewLLMTimeoutError(p.Name())
	}
	return "", errors.NewLLMRequestFailedError(p.Name(), err)
}

// failureReason labels a bridge error for metrics.
func failureReason(err error) string {
	var se *errors.StandardError
	if stderrors.As(err, &se) {
		switch se.Code {
		case errors.ErrCodeLLMTimeout:
			return "timeout"
		case errors.ErrCodeLLMRequestFailed:
			return "provider"
		case errors.ErrCodeLLMResponseInvalid:
			return "invalid_output"
		case errors.ErrCodeAppContextUnavailable:
			return "no_grounding"
		}
	}
	return "unverified"
}
