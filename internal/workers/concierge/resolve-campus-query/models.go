package resolvecampusquery

import (
	"time"

	"campus-concierge/internal/common/validation"
	"campus-concierge/internal/models"
)

type Input struct {
	Query    string `json:"query"`
	AllowLLM *bool  `json:"allowLlm,omitempty"`
}

type Output struct {
	Response     *models.ConciergeResponsePayload `json:"response"`
	ResolutionID string                           `json:"resolutionId"`
	ResolvedAt   time.Time                        `json:"resolvedAt"`
	Stage        string                           `json:"-"`
}

// ToVariables is the variable set written back to the process instance.
func (o *Output) ToVariables() map[string]interface{} {
	return map[string]interface{}{
		"response":     o.Response,
		"resolutionId": o.ResolutionID,
		"resolvedAt":   o.ResolvedAt.UTC().Format(time.RFC3339),
	}
}

var inputSchema = validation.MustCompile("resolve-campus-query-input", `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query":    {"type": "string"},
		"allowLlm": {"type": "boolean"}
	}
}`)

var outputSchema = validation.MustCompile("resolve-campus-query-output", `{
	"type": "object",
	"required": ["response", "resolutionId", "resolvedAt"],
	"properties": {
		"response": {
			"type": "object",
			"required": ["message", "locations", "action", "intent", "verified", "sources", "follow_up"],
			"properties": {
				"message":   {"type": "string"},
				"locations": {"type": "array"},
				"action":    {"enum": ["show_location", "show_route", "show_multiple_locations", "text_answer"]},
				"intent":    {"type": "string"},
				"verified":  {"type": "boolean"},
				"sources":   {"type": "array", "items": {"type": "string"}},
				"follow_up": {"type": "array", "items": {"type": "string"}}
			}
		},
		"resolutionId": {"type": "string", "minLength": 1},
		"resolvedAt":   {"type": "string"}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}

func GetOutputSchema() *validation.Schema {
	return outputSchema
}
