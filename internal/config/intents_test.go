package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIntentsConfig() *IntentsConfig {
	return &IntentsConfig{
		Intents: []IntentKeywords{
			{Intent: "comparison", Keywords: []string{"vs", "versus", "compare"}},
			{Intent: "aggregation", Keywords: []string{"how many", "count"}},
			{Intent: "expansion", Keywords: []string{"latest", "2026"}},
			{Intent: "out_of_scope", Keywords: []string{"weather"}},
			{Intent: "lookup", Keywords: []string{}},
		},
		KnownEntities: []string{"RLHF", "Constitutional AI"},
		Aliases:       map[string]string{"cot": "m:cot"},
	}
}

func TestClassifyByKeyword(t *testing.T) {
	cfg := testIntentsConfig()

	assert.Equal(t, "comparison", cfg.ClassifyByKeyword("RLHF vs Constitutional AI"))
	assert.Equal(t, "aggregation", cfg.ClassifyByKeyword("How many methods address Planning?"))
	assert.Equal(t, "expansion", cfg.ClassifyByKeyword("What's the latest research?"))
	assert.Equal(t, "out_of_scope", cfg.ClassifyByKeyword("What's the weather today?"))
	assert.Equal(t, "", cfg.ClassifyByKeyword("Tell me about RLHF"))
}

func TestExtractKnownEntities(t *testing.T) {
	cfg := testIntentsConfig()

	found := cfg.ExtractKnownEntities("Compare RLHF and Constitutional AI")
	assert.ElementsMatch(t, []string{"RLHF", "Constitutional AI"}, found)

	assert.Empty(t, cfg.ExtractKnownEntities("What's the weather?"))
}

func TestNormalizeEntity(t *testing.T) {
	cfg := testIntentsConfig()

	assert.Equal(t, "m:cot", cfg.NormalizeEntity("CoT"))
	assert.Equal(t, "m:cot", cfg.NormalizeEntity("  cot  "))
	assert.Equal(t, "RLHF", cfg.NormalizeEntity("RLHF"))
}

func TestLoadIntents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	content := `
intents:
  - intent: lookup
    keywords: []
known_entities:
  - RLHF
aliases:
  cot: "m:cot"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadIntents(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Intents, 1)
	assert.Equal(t, "m:cot", cfg.Aliases["cot"])
}

func TestLoadIntents_MissingFile(t *testing.T) {
	_, err := LoadIntents("/nonexistent/intents.yaml")
	assert.Error(t, err)
}
