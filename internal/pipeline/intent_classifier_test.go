package pipeline

import (
	"context"
	"testing"

	"unified-thinking/internal/config"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/querycontext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAppContext() *config.AppContext {
	return &config.AppContext{
		Config: &config.Config{},
		Intents: &config.IntentsConfig{
			Intents: []config.IntentKeywords{
				{Intent: "comparison", Keywords: []string{"vs", "versus"}},
				{Intent: "expansion", Keywords: []string{"latest", "2026"}},
				{Intent: "out_of_scope", Keywords: []string{"joke", "weather", "recipe"}},
			},
			KnownEntities: []string{"ReAct", "RAG"},
			Aliases: map[string]string{
				"react": "m:react",
			},
		},
		CypherTemplates: &config.CypherTemplatesConfig{},
	}
}

func TestIntentClassifier_FallbackKeyword(t *testing.T) {
	c := NewIntentClassifier(nil, nil, testAppContext())
	qc := querycontext.NewContext("LangChain vs CrewAI for agents")

	c.Run(context.Background(), qc)

	assert.True(t, qc.Intent.Ran)
	assert.Equal(t, querycontext.IntentComparison, qc.Intent.Intent)
}

func TestIntentClassifier_FallbackDefaultsToLookup(t *testing.T) {
	c := NewIntentClassifier(nil, nil, testAppContext())
	qc := querycontext.NewContext("What is ReAct?")

	c.Run(context.Background(), qc)

	assert.Equal(t, querycontext.IntentLookup, qc.Intent.Intent)
	require.Contains(t, qc.Intent.Entities, "m:react")
}

func TestIntentClassifier_FallbackExtractsAndNormalizesEntities(t *testing.T) {
	c := NewIntentClassifier(nil, nil, testAppContext())
	qc := querycontext.NewContext("Tell me about ReAct and RAG")

	c.Run(context.Background(), qc)

	assert.Contains(t, qc.Intent.Entities, "m:react")
	assert.Contains(t, qc.Intent.Entities, "RAG")
}

func TestExtractIntent_InvalidTagFallsBackToLookup(t *testing.T) {
	assert.Equal(t, "lookup", extractIntent("INTENT: not_a_real_tag"))
}

func TestExtractIntent_ValidTag(t *testing.T) {
	assert.Equal(t, "comparison", extractIntent("INTENT: comparison\nENTITIES: a, b"))
}

func TestExtractEntities_NormalizesThroughAliases(t *testing.T) {
	intentsCfg := testAppContext().Intents
	entities := extractEntities("INTENT: lookup\nENTITIES: react, RAG", intentsCfg)
	assert.Equal(t, []string{"m:react", "RAG"}, entities)
}

func TestIntentClassifier_NoRegistryUsesFallback(t *testing.T) {
	appCtx := testAppContext()
	resolver := llm.NewPromptResolver(nil)
	c := NewIntentClassifier(nil, resolver, appCtx)

	qc := querycontext.NewContext("latest agent frameworks in 2026")
	c.Run(context.Background(), qc)

	assert.Equal(t, querycontext.IntentExpansion, qc.Intent.Intent)
}
