// Package catalog loads and validates the static campus data: buildings,
// aliases, the FAQ knowledge base and canned fallbacks.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/validation"
	"campus-concierge/internal/models"
	doc "campus-concierge/pkg/catalog"

	"github.com/hashicorp/go-multierror"
)

//go:embed data/*.json
var defaultData embed.FS

const (
	defaultBuildings     = "data/buildings.json"
	defaultAliases       = "data/aliases.json"
	defaultKnowledgeBase = "data/knowledge_base.json"
)

// Catalog is the immutable ground truth every resolution is checked against.
type Catalog struct {
	Buildings     []models.Building
	Aliases       map[string]string
	KnowledgeBase models.KnowledgeBase
}

// Paths points at override files. Empty fields use the embedded defaults.
type Paths struct {
	Buildings     string
	Aliases       string
	KnowledgeBase string
}

// PathsFromConfig reads the override file locations from the concierge section.
func PathsFromConfig(cfg config.ConciergeConfig) Paths {
	return Paths{
		Buildings:     cfg.BuildingsPath,
		Aliases:       cfg.AliasesPath,
		KnowledgeBase: cfg.KnowledgeBasePath,
	}
}

// Default returns the embedded Pulchowk campus dataset.
func Default() (*Catalog, error) {
	return Load(Paths{})
}

func Load(paths Paths) (*Catalog, error) {
	var buildings doc.BuildingDocument
	if err := decode(paths.Buildings, defaultBuildings, buildingsSchema, &buildings); err != nil {
		return nil, err
	}

	var aliases doc.AliasDocument
	if err := decode(paths.Aliases, defaultAliases, aliasesSchema, &aliases); err != nil {
		return nil, err
	}

	var kb doc.KnowledgeBaseDocument
	if err := decode(paths.KnowledgeBase, defaultKnowledgeBase, knowledgeBaseSchema, &kb); err != nil {
		return nil, err
	}

	c := &Catalog{
		Buildings: buildings.Buildings,
		Aliases:   aliases.Aliases,
		KnowledgeBase: models.KnowledgeBase{
			Entries:   kb.Entries,
			Fallbacks: kb.Fallbacks,
		},
	}
	if c.Aliases == nil {
		c.Aliases = map[string]string{}
	}

	if err := Validate(c); err != nil {
		return nil, errors.NewCatalogValidationFailedError(err.Error())
	}
	return c, nil
}

func decode(path, embedded string, schema *validation.Schema, v interface{}) error {
	source := path
	var (
		data []byte
		err  error
	)
	if path == "" {
		source = "embedded:" + embedded
		data, err = defaultData.ReadFile(embedded)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return errors.NewCatalogLoadFailedError(source, err)
	}

	if err := schema.ValidateBytes(data).Err(); err != nil {
		return errors.NewCatalogValidationFailedError(fmt.Sprintf("%s: %v", source, err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewCatalogLoadFailedError(source, err)
	}
	return nil
}

// Validate checks cross references between the documents and reports every
// violation, not just the first.
func Validate(c *Catalog) error {
	var result *multierror.Error

	ids := make(map[string]bool, len(c.Buildings))
	for i, b := range c.Buildings {
		if strings.TrimSpace(b.ID) == "" {
			result = multierror.Append(result, fmt.Errorf("buildings[%d]: empty id", i))
			continue
		}
		if ids[b.ID] {
			result = multierror.Append(result, fmt.Errorf("buildings[%d]: duplicate id %q", i, b.ID))
		}
		ids[b.ID] = true
		if strings.TrimSpace(b.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("building %q: empty name", b.ID))
		}
	}

	for phrase, id := range c.Aliases {
		if strings.TrimSpace(phrase) == "" {
			result = multierror.Append(result, fmt.Errorf("alias with empty phrase points at %q", id))
		}
		if !ids[id] {
			result = multierror.Append(result, fmt.Errorf("alias %q: unknown building %q", phrase, id))
		}
	}

	entryIDs := make(map[string]bool, len(c.KnowledgeBase.Entries))
	for _, e := range c.KnowledgeBase.Entries {
		if entryIDs[e.ID] {
			result = multierror.Append(result, fmt.Errorf("knowledge base: duplicate entry %q", e.ID))
		}
		entryIDs[e.ID] = true

		if !e.Intent.Valid() {
			result = multierror.Append(result, fmt.Errorf("entry %q: unknown intent %q", e.ID, e.Intent))
		}
		if !e.SourceType.Valid() {
			result = multierror.Append(result, fmt.Errorf("entry %q: unknown source_type %q", e.ID, e.SourceType))
		}
		if len(e.QuestionPatterns) == 0 && len(e.Keywords) == 0 {
			result = multierror.Append(result, fmt.Errorf("entry %q: needs question_patterns or keywords", e.ID))
		}
		if e.LastVerifiedAt != "" {
			if _, err := ParseVerifiedAt(e.LastVerifiedAt); err != nil {
				result = multierror.Append(result, fmt.Errorf("entry %q: last_verified_at: %w", e.ID, err))
			}
		}
		for _, id := range e.LocationIDs {
			if !ids[id] {
				result = multierror.Append(result, fmt.Errorf("entry %q: unknown location %q", e.ID, id))
			}
		}
	}

	if _, ok := c.KnowledgeBase.Fallbacks["general"]; !ok {
		result = multierror.Append(result, fmt.Errorf("fallbacks: missing \"general\" entry"))
	}
	for key, fb := range c.KnowledgeBase.Fallbacks {
		for _, id := range fb.LocationIDs {
			if !ids[id] {
				result = multierror.Append(result, fmt.Errorf("fallback %q: unknown location %q", key, id))
			}
		}
	}

	return result.ErrorOrNil()
}

// ParseVerifiedAt accepts RFC3339 timestamps or plain dates.
func ParseVerifiedAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
