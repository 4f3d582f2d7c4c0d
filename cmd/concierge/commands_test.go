package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-concierge/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const minimalConfig = "app:\n  name: campus-concierge-test\n"

func TestAsk_NoLLM(t *testing.T) {
	cfgPath := writeConfig(t, minimalConfig)

	out, stderr, err := run(t, "ask", "--config", cfgPath, "--no-llm", "--stage", "route", "from", "library", "to", "canteen")
	require.NoError(t, err)

	var payload models.ConciergeResponsePayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, models.ActionShowRoute, payload.Action)
	require.Len(t, payload.Locations, 2)
	assert.Contains(t, stderr, "stage=route")
}

func TestAsk_RequiresQuery(t *testing.T) {
	_, _, err := run(t, "ask", "--config", writeConfig(t, minimalConfig))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", "--config", writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "catalog ok")
}

func TestValidate_BadCatalogPath(t *testing.T) {
	cfg := minimalConfig + "concierge:\n  buildings_path: /does/not/exist.json\n"
	_, _, err := run(t, "validate", "--config", writeConfig(t, cfg))
	assert.Error(t, err)
}
