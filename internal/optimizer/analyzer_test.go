package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferPatternType(t *testing.T) {
	assert.Equal(t, "output_quality", inferPatternType("ec:source-citation"))
	assert.Equal(t, "reasoning", inferPatternType("ec:reasoning-steps"))
	assert.Equal(t, "retrieval", inferPatternType("ec:template-selection"))
	assert.Equal(t, "classification", inferPatternType("ec:intent-accuracy"))
	assert.Equal(t, "output_quality", inferPatternType("ec:unknown-thing"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("ec:source-citation", "source", "grounding"))
	assert.False(t, containsAny("ec:tone", "source", "grounding"))
}

func TestFallbackHypotheses_KnownCriterion(t *testing.T) {
	h := fallbackHypotheses("ec:source-citation")
	assert.NotEmpty(t, h)
	assert.Contains(t, h[0], "cite")
}

func TestFallbackHypotheses_UnknownCriterionUsesDefault(t *testing.T) {
	h := fallbackHypotheses("ec:something-novel")
	assert.Len(t, h, 2)
}

func TestFailureAnalyzer_GroupFailures(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	grouped := a.groupFailures([]lowScoreEval{
		{agentName: "synthesizer", criterionID: "ec:source-citation", query: "q1", score: 0.2},
		{agentName: "synthesizer", criterionID: "ec:source-citation", query: "q2", score: 0.3},
		{agentName: "synthesizer", criterionID: "ec:answer-relevance", query: "q3", score: 0.1},
	})
	require.Len(t, grouped, 2)
	assert.Len(t, grouped["synthesizer:ec:source-citation"], 2)
	assert.Len(t, grouped["synthesizer:ec:answer-relevance"], 1)
}

func TestFailureAnalyzer_CreatePattern_NoLLMUsesFallback(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	failures := []lowScoreEval{
		{agentName: "synthesizer", criterionID: "ec:source-citation", query: "q1", response: "resp1", score: 0.2},
		{agentName: "synthesizer", criterionID: "ec:source-citation", query: "q2", response: "resp2", score: 0.4},
	}

	pattern := a.createPattern(context.Background(), "synthesizer:ec:source-citation", failures)
	require.NotNil(t, pattern)

	assert.Equal(t, "synthesizer", pattern.AgentName)
	assert.Equal(t, "ec:source-citation", pattern.CriterionID)
	assert.Equal(t, "output_quality", pattern.PatternType)
	assert.Equal(t, 2, pattern.Frequency)
	assert.InDelta(t, 0.3, pattern.AvgScore, 0.0001)
	assert.Equal(t, "detected", pattern.Status)
	assert.NotEmpty(t, pattern.RootCauseHypotheses)
	assert.Contains(t, pattern.ID, "fp:synthesizer:source-citation:")
}

func TestFailureAnalyzer_QueryLowScores_NoKG(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	rows, err := a.queryLowScores(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, rows)
}

func TestFailureAnalyzer_Analyze_NoKGReturnsNil(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	patterns, err := a.Analyze(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, patterns)
}

func TestFailureAnalyzer_GetPatterns_NoKG(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	patterns, err := a.GetPatterns(context.Background(), "", "")
	assert.NoError(t, err)
	assert.Nil(t, patterns)
}

func TestFailureAnalyzer_SavePattern_NoKGErrors(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	err := a.savePattern(context.Background(), &FailurePattern{ID: "fp:test"})
	assert.Error(t, err)
}

func TestFailureAnalyzer_UpdatePatternStatus_NoKGErrors(t *testing.T) {
	a := NewFailureAnalyzer(nil, nil, 0.6, 2)
	err := a.UpdatePatternStatus(context.Background(), "fp:test", "reviewing")
	assert.Error(t, err)
}

func TestStringSliceProp(t *testing.T) {
	props := map[string]interface{}{
		"names": []interface{}{"a", "b", 3},
	}
	out := stringSliceProp(props, "names")
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestStringSliceProp_MissingKey(t *testing.T) {
	assert.Nil(t, stringSliceProp(map[string]interface{}{}, "missing"))
}
