package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/validation"
	"campus-concierge/internal/models"
)

var appContextReplySchema = validation.MustCompile("app-context-reply", `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message": {"type": "string", "minLength": 1}
  }
}`)

var topicFollowUps = map[string][]string{
	"notices":     {"Are there any exam deadlines coming up?"},
	"events":      {"Which clubs are organising events?"},
	"clubs":       {"What events are happening this week?"},
	"lost_found":  {"Where is the Student Welfare Office?"},
	"marketplace": {"Show me the latest notices"},
	"help":        {"Where is the library?", "Show me the latest notices"},
}

// AppContextBridge answers app-wide questions from live grounding text.
type AppContextBridge struct {
	provider       CompletionProvider
	context        ContextProvider
	timeout        time.Duration
	contextTimeout time.Duration
}

func NewAppContextBridge(provider CompletionProvider, ctxProvider ContextProvider, timeout, contextTimeout time.Duration) *AppContextBridge {
	return &AppContextBridge{
		provider:       provider,
		context:        ctxProvider,
		timeout:        timeout,
		contextTimeout: contextTimeout,
	}
}

func (a *AppContextBridge) grounding(ctx context.Context, topic string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.contextTimeout)
	defer cancel()

	text, err := a.context.Summarize(ctx, topic)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.NewAppContextUnavailableError([]string{topic})
	}
	return text, nil
}

func appContextPrompt(query, topic, grounding string) string {
	var sb strings.Builder
	sb.WriteString("You are a campus assistant. Answer the student using ONLY the context below. ")
	sb.WriteString("If the context does not contain the answer, say so briefly.\n")
	fmt.Fprintf(&sb, "Topic: %s\nContext:\n%s\n", topic, grounding)
	sb.WriteString(`Reply with strict JSON only: {"message": string}`)
	fmt.Fprintf(&sb, "\nStudent query: %q\n", query)
	return sb.String()
}

// Answer returns a text answer grounded on topic, or an error if either the
// summarizer or the model let us down.
func (a *AppContextBridge) Answer(ctx context.Context, query, topic string, intent models.Intent) (*models.ConciergeResponsePayload, error) {
	grounding, err := a.grounding(ctx, topic)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := complete(ctx, a.provider, appContextPrompt(query, topic, grounding))
	if err != nil {
		return nil, err
	}
	raw, err := decodeModelReply(text, appContextReplySchema)
	if err != nil {
		return nil, err
	}
	var reply struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, err
	}
	msg := strings.TrimSpace(reply.Message)
	if msg == "" {
		return nil, errors.NewLLMResponseInvalidError("empty message")
	}

	return &models.ConciergeResponsePayload{
		Message:   msg,
		Locations: []models.ConciergeLocationPayload{},
		Action:    models.ActionTextAnswer,
		Intent:    intent,
		Verified:  true,
		Sources:   []string{"app_context:" + topic, "provider:" + a.provider.Name()},
		FollowUp:  nonNil(topicFollowUps[topic]),
	}, nil
}
