package summarizeappcontext

import "campus-concierge/internal/common/validation"

type Input struct {
	Topics []string `json:"topics"`
}

type Output struct {
	Context string   `json:"context"`
	Topics  []string `json:"topics"`
}

func (o *Output) ToVariables() map[string]interface{} {
	return map[string]interface{}{
		"context": o.Context,
		"topics":  o.Topics,
	}
}

var inputSchema = validation.MustCompile("summarize-app-context-input", `{
	"type": "object",
	"required": ["topics"],
	"properties": {
		"topics": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
