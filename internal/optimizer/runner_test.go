package optimizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unified-thinking/internal/querycontext"
)

func writeTestQueriesFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test_queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTestQuery_AppliesDefaults(t *testing.T) {
	tq := parseTestQuery(rawTestQuery{Query: "what is ReAct?"})
	assert.Equal(t, 0.5, tq.MinConfidence)
	assert.True(t, tq.NoError)
}

func TestParseTestQuery_RespectsExplicitValues(t *testing.T) {
	minConf := 0.9
	noError := false
	tq := parseTestQuery(rawTestQuery{
		Query:         "what is ReAct?",
		MinConfidence: &minConf,
		NoError:       &noError,
	})
	assert.Equal(t, 0.9, tq.MinConfidence)
	assert.False(t, tq.NoError)
}

func TestTestRunner_LoadTestQueries_MissingFileIsEmpty(t *testing.T) {
	tr := NewTestRunner(nil, nil, nil, filepath.Join(t.TempDir(), "missing.yaml"))
	queries, err := tr.loadTestQueries("synthesizer")
	assert.NoError(t, err)
	assert.Empty(t, queries)
}

func TestTestRunner_LoadTestQueries_ParsesByAgent(t *testing.T) {
	path := writeTestQueriesFile(t, `
synthesizer:
  - query: "what is ReAct?"
    expected_intent: "definition"
    min_sources: 1
intent_classifier:
  - query: "compare ReAct and Reflexion"
    expected_intent: "comparison"
`)
	tr := NewTestRunner(nil, nil, nil, path)

	synth, err := tr.loadTestQueries("synthesizer")
	require.NoError(t, err)
	require.Len(t, synth, 1)
	assert.Equal(t, "what is ReAct?", synth[0].Query)
	assert.Equal(t, "definition", synth[0].ExpectedIntent)
	assert.Equal(t, 1, synth[0].MinSources)
	assert.Equal(t, 0.5, synth[0].MinConfidence)

	all, err := tr.loadTestQueries("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCheckAssertions_IntentMismatchFails(t *testing.T) {
	tq := TestQuery{ExpectedIntent: "comparison", NoError: true}
	qc := querycontext.NewContext("what is ReAct?")
	qc.Intent.Intent = querycontext.IntentLookup

	assert.False(t, checkAssertions(tq, qc))
}

func TestCheckAssertions_AllSatisfied(t *testing.T) {
	tq := TestQuery{
		ExpectedIntent:   "lookup",
		ExpectedEntities: []string{"ReAct"},
		MinConfidence:    0.5,
		MinSources:       1,
		MinResults:       1,
		NoError:          true,
	}
	qc := querycontext.NewContext("what is ReAct?")
	qc.Intent.Intent = querycontext.IntentLookup
	qc.Intent.Entities = []string{"ReAct", "Reflexion"}
	qc.Synthesis.Confidence = 0.8
	qc.Synthesis.Sources = []querycontext.Source{{Type: "Method", ID: "react", Name: "ReAct"}}
	qc.Retrieval.GraphRecords = []querycontext.GraphRecord{{"n": "x"}}

	assert.True(t, checkAssertions(tq, qc))
}

func TestCheckAssertions_ErrorFailsWhenNoErrorRequired(t *testing.T) {
	tq := TestQuery{NoError: true}
	qc := querycontext.NewContext("what is ReAct?")
	qc.SetError("synthesizer", errors.New("boom"))

	assert.False(t, checkAssertions(tq, qc))
}

func TestCalculateDelta_Improvement(t *testing.T) {
	baseline := map[string]float64{"ec:answer-relevance": 0.5, "ec:source-citation": 0.6}
	variant := map[string]float64{"ec:answer-relevance": 0.7, "ec:source-citation": 0.6}

	delta := calculateDelta(baseline, variant)
	assert.InDelta(t, 0.1, delta, 0.0001)
}

func TestCalculateDelta_EmptyBaseline(t *testing.T) {
	assert.Equal(t, 0.0, calculateDelta(nil, map[string]float64{"x": 1}))
}

func TestCountPassFail(t *testing.T) {
	passed, failed := countPassFail([]map[string]interface{}{
		{"assertions_passed": true},
		{"assertions_passed": false},
		{"assertions_passed": true},
	})
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
}
