package catalog

import "campus-concierge/internal/common/validation"

var buildingsSchema = validation.MustCompile("buildings", `{
	"type": "object",
	"required": ["buildings"],
	"properties": {
		"buildings": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "name", "coordinates"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"coordinates": {
						"type": "object",
						"required": ["lat", "lng"],
						"properties": {
							"lat": {"type": "number", "minimum": -90, "maximum": 90},
							"lng": {"type": "number", "minimum": -180, "maximum": 180}
						}
					},
					"services": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"purpose": {"type": "string"},
								"location": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}
}`)

var aliasesSchema = validation.MustCompile("aliases", `{
	"type": "object",
	"required": ["aliases"],
	"properties": {
		"aliases": {
			"type": "object",
			"additionalProperties": {"type": "string", "minLength": 1}
		}
	}
}`)

var knowledgeBaseSchema = validation.MustCompile("knowledge_base", `{
	"type": "object",
	"required": ["entries", "fallbacks"],
	"properties": {
		"entries": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "intent", "answer", "source_type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"intent": {"type": "string"},
					"category": {"type": "string"},
					"question_patterns": {"type": "array", "items": {"type": "string"}},
					"keywords": {"type": "array", "items": {"type": "string"}},
					"answer": {"type": "string", "minLength": 1},
					"location_ids": {"type": "array", "items": {"type": "string"}},
					"source_type": {"enum": ["official_page", "office_confirmed", "map_data"]},
					"last_verified_at": {"type": "string"},
					"follow_up": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"fallbacks": {
			"type": "object",
			"required": ["general"],
			"additionalProperties": {
				"type": "object",
				"required": ["message"],
				"properties": {
					"message": {"type": "string", "minLength": 1},
					"location_ids": {"type": "array", "items": {"type": "string"}},
					"follow_up": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`)
