package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/logger"
)

func TestNew(t *testing.T) {
	log := logger.NewTestLogger(t)

	p, err := New(config.GenAIConfig{}, log)
	assert.NoError(t, err)
	assert.Nil(t, p)

	_, err = New(config.GenAIConfig{Provider: "http"}, log)
	assert.Error(t, err)

	_, err = New(config.GenAIConfig{Provider: "carrier-pigeon"}, log)
	assert.Error(t, err)

	p, err = New(config.GenAIConfig{Provider: "http", BaseURL: "http://genai.local"}, log)
	require.NoError(t, err)
	assert.Equal(t, "http", p.Name())

	p, err = New(config.GenAIConfig{Provider: "openai", APIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestHTTPProvider_Complete(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"text field", `{"text":"{\"message\":\"hi\"}","confidence":0.9}`, `{"message":"hi"}`},
		{"response field", `{"response":"plain answer"}`, "plain answer"},
		{"chat shape", `{"choices":[{"message":{"role":"assistant","content":"from chat"}}]}`, "from chat"},
		{"completion shape", `{"choices":[{"text":"  from completion "}]}`, "from completion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/ai/generate", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			p := NewHTTPProvider(config.GenAIConfig{
				Provider:  "http",
				BaseURL:   srv.URL + "/",
				APIKey:    "secret",
				MaxTokens: 300,
				Model:     "campus-small",
			}, logger.NewTestLogger(t))

			text, err := p.Complete(context.Background(), "where is the library")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, "where is the library", got["prompt"])
			assert.Equal(t, float64(300), got["max_tokens"])
			assert.Equal(t, "campus-small", got["model"])
		})
	}
}

func TestHTTPProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, `{"error":"upstream"}`, ErrGenAIRequestFailed},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrGenAIRequestFailed},
		{"empty text", http.StatusOK, `{"text":"   "}`, ErrGenAIEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewHTTPProvider(config.GenAIConfig{Provider: "http", BaseURL: srv.URL}, logger.NewNoOpLogger())
			_, err := p.Complete(context.Background(), "q")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewHTTPProvider(config.GenAIConfig{Provider: "http", BaseURL: srv.URL}, logger.NewNoOpLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, "q")
	assert.ErrorIs(t, err, ErrGenAITimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GenAIConfig{Provider: "http", BaseURL: srv.URL, RatePerMinute: 1}, logger.NewNoOpLogger())

	_, err := p.Complete(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Complete(ctx, "second")
	assert.Error(t, err, "the second call should not get a token within the deadline")
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var req map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1760600000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"message\":\"ok\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.GenAIConfig{Provider: "openai", BaseURL: srv.URL, APIKey: "sk-test"}, logger.NewTestLogger(t))

	text, err := p.Complete(context.Background(), "summarize notices")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"ok"}`, text)
	assert.Equal(t, "gpt-4o-mini", req["model"])

	msgs, ok := req["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "summarize notices", msgs[1].(map[string]interface{})["content"])
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.GenAIConfig{Provider: "openai", BaseURL: srv.URL, APIKey: "sk-test"}, logger.NewNoOpLogger())
	_, err := p.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGenAIRequestFailed)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.GenAIConfig{Provider: "openai", BaseURL: srv.URL}, logger.NewNoOpLogger())
	_, err := p.Complete(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGenAIEmptyResponse)
}
