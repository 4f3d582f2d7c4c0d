// pkg/catalog/schema.go
package catalog

import "campus-concierge/internal/models"

// BuildingDocument is the on-disk layout of buildings.json.
type BuildingDocument struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Buildings   []models.Building `json:"buildings"`
}

// AliasDocument maps informal phrases to building ids.
type AliasDocument struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Aliases     map[string]string `json:"aliases"`
}

type KnowledgeBaseDocument struct {
	Version     string                          `json:"version"`
	LastUpdated string                          `json:"lastUpdated"`
	Entries     []models.KnowledgeBaseEntry     `json:"entries"`
	Fallbacks   map[string]models.FallbackEntry `json:"fallbacks"`
}
