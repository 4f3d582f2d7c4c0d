// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func LoadBuildings(path string) (*BuildingDocument, error) {
	var doc BuildingDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func LoadAliases(path string) (*AliasDocument, error) {
	var doc AliasDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func LoadKnowledgeBase(path string) (*KnowledgeBaseDocument, error) {
	var doc KnowledgeBaseDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveAliases writes the alias document back with a refreshed lastUpdated stamp.
func SaveAliases(path string, doc *AliasDocument) error {
	doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return writeJSON(path, doc)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
