// internal/models/campus.go
package models

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type BuildingService struct {
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Location string `json:"location"`
}

type Building struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Coordinates Coordinates       `json:"coordinates"`
	Description string            `json:"description"`
	Services    []BuildingService `json:"services"`
}

type SourceType string

const (
	SourceOfficialPage    SourceType = "official_page"
	SourceOfficeConfirmed SourceType = "office_confirmed"
	SourceMapData         SourceType = "map_data"
)

// Authority ranks source types; higher wins ties.
func (s SourceType) Authority() int {
	switch s {
	case SourceOfficialPage:
		return 3
	case SourceOfficeConfirmed:
		return 2
	case SourceMapData:
		return 1
	}
	return 0
}

func (s SourceType) Valid() bool {
	return s.Authority() > 0
}

type KnowledgeBaseEntry struct {
	ID               string     `json:"id"`
	Intent           Intent     `json:"intent"`
	Category         string     `json:"category"`
	QuestionPatterns []string   `json:"question_patterns"`
	Keywords         []string   `json:"keywords"`
	Answer           string     `json:"answer"`
	LocationIDs      []string   `json:"location_ids"`
	SourceType       SourceType `json:"source_type"`
	LastVerifiedAt   string     `json:"last_verified_at"`
	FollowUp         []string   `json:"follow_up"`
}

type FallbackEntry struct {
	Message     string   `json:"message"`
	LocationIDs []string `json:"location_ids,omitempty"`
	FollowUp    []string `json:"follow_up,omitempty"`
}

type KnowledgeBase struct {
	Entries   []KnowledgeBaseEntry     `json:"entries"`
	Fallbacks map[string]FallbackEntry `json:"fallbacks"`
}
