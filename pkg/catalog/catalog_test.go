package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliases_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aliases.json")

	doc := &AliasDocument{Version: "1.0.0", Aliases: map[string]string{"canteen": "campus-mess"}}
	require.NoError(t, SaveAliases(path, doc))
	assert.NotEmpty(t, doc.LastUpdated)

	loaded, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, "campus-mess", loaded.Aliases["canteen"])
	assert.Equal(t, doc.LastUpdated, loaded.LastUpdated)
}

func TestLoadBuildings_Errors(t *testing.T) {
	_, err := LoadBuildings(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(t.TempDir(), "buildings.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"buildings": [`), 0o644))
	_, err = LoadBuildings(bad)
	assert.ErrorContains(t, err, "decode buildings.json")
}

func TestLoadKnowledgeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"entries": [{"id": "kb-1", "intent": "policy_query", "question_patterns": ["library hours"], "source_type": "official_page"}],
		"fallbacks": {"general": {"message": "ask the enquiry desk"}}
	}`), 0o644))

	doc, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "library hours", doc.Entries[0].QuestionPatterns[0])
	assert.Equal(t, "ask the enquiry desk", doc.Fallbacks["general"].Message)
}
