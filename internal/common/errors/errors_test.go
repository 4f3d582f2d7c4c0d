package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"invalid input", NewInvalidQueryInputError("query must be a string"), "INVALID_QUERY_INPUT", 0},
		{"llm timeout", NewLLMTimeoutError("http"), "LLM_TIMEOUT", 1},
		{"context unavailable", NewAppContextUnavailableError([]string{"notices"}), "APP_CONTEXT_UNAVAILABLE", 3},
		{"non retryable overrides table", NewLLMResponseInvalidError("no json"), "LLM_RESPONSE_INVALID", 0},
		{"unmapped code", &StandardError{Code: "SOMETHING_ELSE", Message: "x"}, "SOMETHING_ELSE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	stdErr := NewUnknownTopicError("weather").WithMetadata("topic", "weather")
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "UNKNOWN_TOPIC", vars["errorCode"])
	assert.Equal(t, "weather", vars["topic"])
	assert.Equal(t, false, vars["retryable"])
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", NewCatalogLoadFailedError("data/buildings.json", stderrors.New("missing")))
	stdErr := Normalize(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeCatalogLoadFailed, stdErr.Code)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogValidationFailed))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeLLMTimeout))
	assert.Equal(t, "APP_CONTEXT", GetErrorCategory(ErrCodeTopicFetchFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseQueryFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidQueryInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseQueryFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidQueryInput))
}
