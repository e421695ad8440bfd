package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailurePattern_PatternKey(t *testing.T) {
	fp := FailurePattern{AgentName: "synthesizer", CriterionID: "ec:source-citation"}
	assert.Equal(t, "synthesizer:ec:source-citation", fp.PatternKey())
}

func TestTestResult_PassRate(t *testing.T) {
	r := TestResult{TestQueriesCount: 4, PassedCount: 3}
	assert.InDelta(t, 0.75, r.PassRate(), 0.0001)
}

func TestTestResult_PassRate_NoQueries(t *testing.T) {
	r := TestResult{}
	assert.Equal(t, 0.0, r.PassRate())
}
